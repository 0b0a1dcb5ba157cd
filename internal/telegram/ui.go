package telegram

import (
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/report"
	"github.com/vbonduro/calorigram/internal/service"
	"github.com/vbonduro/calorigram/internal/targets"
)

// Callback data prefixes. Telegram caps callback data at 64 bytes, which
// fits "meal:<type>:<uuid>".
const (
	cbMeal   = "meal"
	cbCancel = "cancel"
	cbDelete = "del"
)

const helpText = "Я считаю калории по фото и описанию блюд.\n\n" +
	"📸 Пришлите фото блюда (можно с подписью: вес, состав)\n" +
	"✍️ Или опишите блюдо текстом, например «гречка с курицей 250 г»\n\n" +
	"Команды:\n" +
	"/register — профиль и дневная норма\n" +
	"/profile — ваша норма\n" +
	"/today — статистика за сегодня\n" +
	"/week — статистика за неделю\n" +
	"/clear — удалить записи за сегодня\n" +
	"/tz <зона> — часовой пояс, например /tz Europe/Moscow"

// mealTypeKeyboard asks which meal an estimate belongs to.
func mealTypeKeyboard(estimateID string) tgbotapi.InlineKeyboardMarkup {
	row1 := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🌅 "+domain.MealBreakfast.Title(), cbMeal+":"+string(domain.MealBreakfast)+":"+estimateID),
		tgbotapi.NewInlineKeyboardButtonData("🍲 "+domain.MealLunch.Title(), cbMeal+":"+string(domain.MealLunch)+":"+estimateID),
	)
	row2 := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🌙 "+domain.MealDinner.Title(), cbMeal+":"+string(domain.MealDinner)+":"+estimateID),
		tgbotapi.NewInlineKeyboardButtonData("🍎 "+domain.MealSnack.Title(), cbMeal+":"+string(domain.MealSnack)+":"+estimateID),
	)
	cancel := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Не записывать", cbCancel+":"+estimateID),
	)
	return tgbotapi.NewInlineKeyboardMarkup(row1, row2, cancel)
}

// deleteKeyboard offers one delete button per logged meal, or nil when
// there is nothing to delete.
func deleteKeyboard(meals []domain.Meal) *tgbotapi.InlineKeyboardMarkup {
	if len(meals) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(meals))
	for _, m := range meals {
		label := fmt.Sprintf("🗑 %s: %s (%s)", m.MealType.Title(), m.DishName, report.Kcal(m.Calories))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbDelete+":"+strconv.FormatInt(m.ID, 10)),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func profileText(u *domain.User) string {
	return fmt.Sprintf("👤 Профиль сохранён\n\n"+
		"Суточная потребность: %s\n"+
		"Цель на день: %s\n"+
		"Белки: %s • Жиры: %s • Углеводы: %s\n"+
		"Часовой пояс: %s",
		report.Kcal(u.DailyCalories),
		report.Kcal(u.Targets.Calories),
		report.Grams(u.Targets.ProteinG), report.Grams(u.Targets.FatG), report.Grams(u.Targets.CarbsG),
		u.Timezone,
	)
}

// userMessage turns a service error into chat text. ok is false for
// unexpected errors, which the caller should log.
func userMessage(err error) (text string, ok bool) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return "Сначала заполните профиль.\n\n" + registerUsage, true
	case errors.Is(err, errRegistrationUsage):
		return registerUsage, true
	case errors.Is(err, targets.ErrInvalidProfile):
		return "Проверьте данные: возраст 1–120 лет, рост 50–250 см, вес 20–300 кг.\n\n" + registerUsage, true
	case errors.Is(err, service.ErrRateLimited):
		return "Слишком много запросов. Подождите минуту и попробуйте снова.", true
	case errors.Is(err, service.ErrInputTooShort):
		return "Описание слишком короткое. Напишите, что и сколько вы съели.", true
	case errors.Is(err, service.ErrInputTooLarge):
		return "Слишком большое сообщение или фото. Фото до 20 МБ, описание до 1000 символов.", true
	case errors.Is(err, service.ErrEmptyInput):
		return "Пустое сообщение. Пришлите фото или описание блюда.", true
	case errors.Is(err, service.ErrAnalysisUnusable):
		return "Не удалось распознать блюдо. Попробуйте другое фото или опишите блюдо текстом.", true
	case errors.Is(err, service.ErrInvalidTimezone):
		return "Неизвестный часовой пояс. Пример: /tz Europe/Moscow", true
	case errors.Is(err, service.ErrMealNotFound):
		return "Запись не найдена.", true
	case errors.Is(err, service.ErrInvalidMealType):
		return "Неизвестный приём пищи.", true
	}
	return "Что-то пошло не так. Попробуйте позже.", false
}
