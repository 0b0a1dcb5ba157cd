package telegram

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/service"
	"github.com/vbonduro/calorigram/internal/targets"
)

const registerUsage = "Формат: /register <пол> <возраст> <рост> <вес> <активность> <цель> [часовой пояс]\n" +
	"Пол: м | ж\n" +
	"Активность: минимальная | низкая | средняя | высокая | очень_высокая\n" +
	"Цель: похудеть | поддерживать | набрать\n" +
	"Пример: /register м 30 180 80 средняя поддерживать Europe/Moscow"

var errRegistrationUsage = errors.New("malformed registration")

var genderAliases = map[string]domain.Gender{
	"m":       domain.GenderMale,
	"male":    domain.GenderMale,
	"м":       domain.GenderMale,
	"муж":     domain.GenderMale,
	"мужской": domain.GenderMale,
	"f":       domain.GenderFemale,
	"female":  domain.GenderFemale,
	"ж":       domain.GenderFemale,
	"жен":     domain.GenderFemale,
	"женский": domain.GenderFemale,
}

var activityAliases = map[string]domain.ActivityLevel{
	"minimal":       domain.ActivityMinimal,
	"минимальная":   domain.ActivityMinimal,
	"light":         domain.ActivityLight,
	"низкая":        domain.ActivityLight,
	"moderate":      domain.ActivityModerate,
	"средняя":       domain.ActivityModerate,
	"high":          domain.ActivityHigh,
	"высокая":       domain.ActivityHigh,
	"very_high":     domain.ActivityVeryHigh,
	"очень_высокая": domain.ActivityVeryHigh,
}

var goalAliases = map[string]domain.Goal{
	"lose":         domain.GoalLose,
	"похудеть":     domain.GoalLose,
	"снижение":     domain.GoalLose,
	"maintain":     domain.GoalMaintain,
	"поддерживать": domain.GoalMaintain,
	"поддержание":  domain.GoalMaintain,
	"gain":         domain.GoalGain,
	"набрать":      domain.GoalGain,
	"набор":        domain.GoalGain,
}

// parseRegistration reads the one-line /register arguments. Range checks
// are left to the profile service.
func parseRegistration(args string) (service.Registration, error) {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) != 6 && len(fields) != 7 {
		return service.Registration{}, errRegistrationUsage
	}

	gender, ok := genderAliases[fields[0]]
	if !ok {
		return service.Registration{}, errRegistrationUsage
	}
	age, err := strconv.Atoi(fields[1])
	if err != nil {
		return service.Registration{}, errRegistrationUsage
	}
	height, err := parseDecimal(fields[2])
	if err != nil {
		return service.Registration{}, errRegistrationUsage
	}
	weight, err := parseDecimal(fields[3])
	if err != nil {
		return service.Registration{}, errRegistrationUsage
	}
	activity, ok := activityAliases[fields[4]]
	if !ok {
		return service.Registration{}, errRegistrationUsage
	}
	goal, ok := goalAliases[fields[5]]
	if !ok {
		return service.Registration{}, errRegistrationUsage
	}

	reg := service.Registration{
		Profile: targets.Profile{
			Gender:   gender,
			Age:      age,
			HeightCM: height,
			WeightKG: weight,
			Activity: activity,
			Goal:     goal,
		},
	}
	if len(fields) == 7 {
		// Zone names are case sensitive; take the original spelling.
		orig := strings.Fields(args)
		reg.Timezone = orig[6]
	}
	return reg, nil
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}
