package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/nutrition"
	"github.com/vbonduro/calorigram/internal/photostore"
	"github.com/vbonduro/calorigram/internal/vision"
)

// Input limits for analysis requests.
const (
	MinDescriptionRunes = 5
	MaxDescriptionRunes = 1000
	MaxImageSize        = 20 << 20
)

const (
	photoDishName = "Блюдо по фото"
	textDishName  = "Блюдо по описанию"
)

// mealRepository is the subset of store.MealStore that MealService requires.
type mealRepository interface {
	Create(ctx context.Context, m *domain.Meal) (*domain.Meal, error)
	GetByID(ctx context.Context, telegramID, id int64) (*domain.Meal, error)
	ListBetween(ctx context.Context, telegramID int64, from, to time.Time) ([]*domain.Meal, error)
	Delete(ctx context.Context, telegramID, id int64) (*domain.Meal, error)
	DeleteBetween(ctx context.Context, telegramID int64, from, to time.Time) ([]*domain.Meal, error)
}

// userLookup is the subset of store.UserStore that MealService requires.
type userLookup interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
}

// Estimate is an analyzed meal that has not been logged yet.
type Estimate struct {
	ID          string
	TelegramID  int64
	Kind        domain.AnalysisKind
	Description string
	Analysis    nutrition.Analysis
	Model       string
	// Image and ImageMIME are set for photo estimates and are persisted
	// only when the estimate is logged.
	Image     []byte
	ImageMIME string
	CreatedAt time.Time
}

type MealService struct {
	meals      mealRepository
	users      userLookup
	analyzer   vision.Analyzer
	photoStg   photostore.PhotoStore
	limiter    *Limiter
	defaultLoc *time.Location
	logger     *slog.Logger
	now        func() time.Time
}

func NewMealService(
	meals mealRepository,
	users userLookup,
	analyzer vision.Analyzer,
	photoStg photostore.PhotoStore,
	limiter *Limiter,
	defaultLoc *time.Location,
	logger *slog.Logger,
) *MealService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	if limiter == nil {
		limiter = NewLimiter(0, 0)
	}
	return &MealService{
		meals:      meals,
		users:      users,
		analyzer:   analyzer,
		photoStg:   photoStg,
		limiter:    limiter,
		defaultLoc: defaultLoc,
		logger:     logger,
		now:        time.Now,
	}
}

// EstimateText analyzes a plain description such as "гречка 200 г".
func (s *MealService) EstimateText(ctx context.Context, telegramID int64, description string) (*Estimate, error) {
	description = strings.TrimSpace(description)
	if err := checkDescription(description); err != nil {
		return nil, err
	}
	if !s.limiter.Allow(telegramID) {
		return nil, ErrRateLimited
	}

	s.logger.Info("text analysis started", "user_id", telegramID, "chars", utf8.RuneCountInString(description))
	result, err := s.analyzer.AnalyzeText(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}

	return s.newEstimate(telegramID, domain.KindText, description, result)
}

// EstimatePhoto analyzes a dish photo. caption is optional and refines the
// estimate when present.
func (s *MealService) EstimatePhoto(ctx context.Context, telegramID int64, image []byte, mimeType, caption string) (*Estimate, error) {
	if len(image) == 0 {
		return nil, ErrEmptyInput
	}
	if len(image) > MaxImageSize {
		return nil, fmt.Errorf("%w: image is %d bytes, limit %d", ErrInputTooLarge, len(image), MaxImageSize)
	}
	caption = strings.TrimSpace(caption)
	if utf8.RuneCountInString(caption) > MaxDescriptionRunes {
		return nil, fmt.Errorf("%w: caption longer than %d characters", ErrInputTooLarge, MaxDescriptionRunes)
	}
	if !s.limiter.Allow(telegramID) {
		return nil, ErrRateLimited
	}

	kind := domain.KindPhoto
	if caption != "" {
		kind = domain.KindPhotoText
	}

	s.logger.Info("photo analysis started", "user_id", telegramID, "mime_type", mimeType, "bytes", len(image))
	result, err := s.analyzer.AnalyzeImage(ctx, bytes.NewReader(image), mimeType, caption)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}

	est, err := s.newEstimate(telegramID, kind, caption, result)
	if err != nil {
		return nil, err
	}
	est.Image = image
	est.ImageMIME = mimeType
	return est, nil
}

func checkDescription(description string) error {
	n := utf8.RuneCountInString(description)
	switch {
	case n == 0:
		return ErrEmptyInput
	case n < MinDescriptionRunes:
		return fmt.Errorf("%w: at least %d characters required", ErrInputTooShort, MinDescriptionRunes)
	case n > MaxDescriptionRunes:
		return fmt.Errorf("%w: at most %d characters allowed", ErrInputTooLarge, MaxDescriptionRunes)
	}
	return nil
}

func (s *MealService) newEstimate(telegramID int64, kind domain.AnalysisKind, description string, result *vision.AnalysisResult) (*Estimate, error) {
	a := nutrition.Analyze(result.RawResponse, description)
	if !a.Usable() {
		s.logger.Warn("analysis unusable", "user_id", telegramID, "kind", kind, "valid", a.Valid, "model", result.Model)
		return nil, ErrAnalysisUnusable
	}
	if a.Result.DishName == "" {
		if kind == domain.KindText {
			a.Result.DishName = textDishName
		} else {
			a.Result.DishName = photoDishName
		}
	}

	s.logger.Info("analysis complete", "user_id", telegramID, "kind", kind,
		"calories", a.Result.Calories, "calories_source", a.CaloriesSource, "model", result.Model)
	return &Estimate{
		ID:          uuid.NewString(),
		TelegramID:  telegramID,
		Kind:        kind,
		Description: description,
		Analysis:    a,
		Model:       result.Model,
		CreatedAt:   s.now(),
	}, nil
}

// LogMeal stores an estimate as a meal of the given type, saving its photo
// first when there is one.
func (s *MealService) LogMeal(ctx context.Context, est *Estimate, mealType domain.MealType) (*domain.Meal, error) {
	if !mealType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMealType, mealType)
	}
	if _, err := s.user(ctx, est.TelegramID); err != nil {
		return nil, err
	}

	var photoKey *string
	if len(est.Image) > 0 {
		key, err := s.photoStg.Save(ctx, fmt.Sprintf("user_%d", est.TelegramID), est.ImageMIME, bytes.NewReader(est.Image))
		if err != nil {
			return nil, fmt.Errorf("failed to save photo: %w", err)
		}
		s.logger.Debug("photo saved", "user_id", est.TelegramID, "storage_key", key)
		photoKey = &key
	}

	r := est.Analysis.Result
	meal, err := s.meals.Create(ctx, &domain.Meal{
		TelegramID:  est.TelegramID,
		MealType:    mealType,
		DishName:    r.DishName,
		Calories:    r.Calories,
		ProteinG:    r.ProteinG,
		FatG:        r.FatG,
		CarbsG:      r.CarbsG,
		WeightG:     est.Analysis.WeightG,
		Description: est.Description,
		Display:     est.Analysis.Display,
		Kind:        est.Kind,
		PhotoKey:    photoKey,
		PhotoMIME:   est.ImageMIME,
		AnalysisID:  est.ID,
		EatenAt:     s.now(),
	})
	if err != nil {
		if photoKey != nil {
			s.deletePhoto(ctx, *photoKey)
		}
		return nil, err
	}

	s.logger.Info("meal logged", "user_id", est.TelegramID, "meal_id", meal.ID, "meal_type", mealType, "calories", meal.Calories)
	return meal, nil
}

// DeleteMeal removes one of the user's meals and its photo.
func (s *MealService) DeleteMeal(ctx context.Context, telegramID, mealID int64) error {
	m, err := s.meals.GetByID(ctx, telegramID, mealID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMealNotFound
	}
	if _, err := s.meals.Delete(ctx, telegramID, mealID); err != nil {
		return err
	}
	if m.PhotoKey != nil {
		s.deletePhoto(ctx, *m.PhotoKey)
	}
	s.logger.Info("meal deleted", "user_id", telegramID, "meal_id", mealID)
	return nil
}

// ClearToday removes every meal logged today in the user's timezone and
// returns how many were removed.
func (s *MealService) ClearToday(ctx context.Context, telegramID int64) (int, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	loc := s.location(u)
	from, to := dayBounds(s.now().In(loc), loc)

	removed, err := s.meals.DeleteBetween(ctx, telegramID, from, to)
	if err != nil {
		return 0, err
	}
	for _, m := range removed {
		if m.PhotoKey != nil {
			s.deletePhoto(ctx, *m.PhotoKey)
		}
	}
	s.logger.Info("day cleared", "user_id", telegramID, "meals_removed", len(removed))
	return len(removed), nil
}

// MealPhoto opens the stored photo of one of the user's meals.
func (s *MealService) MealPhoto(ctx context.Context, telegramID, mealID int64) (io.ReadCloser, string, error) {
	m, err := s.meals.GetByID(ctx, telegramID, mealID)
	if err != nil {
		return nil, "", err
	}
	if m == nil || m.PhotoKey == nil {
		return nil, "", ErrMealNotFound
	}
	return s.photoStg.Get(ctx, *m.PhotoKey)
}

// Today is DaySummary for the current date in the user's timezone.
func (s *MealService) Today(ctx context.Context, telegramID int64) (*domain.DaySummary, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.daySummary(ctx, u, s.now().In(s.location(u)))
}

// DaySummary totals the calendar date of day, taken from its year, month
// and day fields, as it runs in the user's timezone.
func (s *MealService) DaySummary(ctx context.Context, telegramID int64, day time.Time) (*domain.DaySummary, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.daySummary(ctx, u, day)
}

func (s *MealService) daySummary(ctx context.Context, u *domain.User, day time.Time) (*domain.DaySummary, error) {
	from, to := dayBounds(day, s.location(u))

	meals, err := s.meals.ListBetween(ctx, u.TelegramID, from, to)
	if err != nil {
		return nil, err
	}

	summary := newDaySummary(from, u.Targets)
	for _, m := range meals {
		summary.add(m)
	}
	return &summary.DaySummary, nil
}

// WeekSummary returns the seven days ending today, oldest first.
func (s *MealService) WeekSummary(ctx context.Context, telegramID int64) (*domain.WeekSummary, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	loc := s.location(u)
	todayStart, end := dayBounds(s.now().In(loc), loc)
	start := todayStart.AddDate(0, 0, -6)

	meals, err := s.meals.ListBetween(ctx, telegramID, start, end)
	if err != nil {
		return nil, err
	}

	days := make([]*daySummary, 7)
	for i := range days {
		days[i] = newDaySummary(start.AddDate(0, 0, i), u.Targets)
	}
	for _, m := range meals {
		local := m.EatenAt.In(loc)
		for i := len(days) - 1; i >= 0; i-- {
			if !local.Before(days[i].Date) {
				days[i].add(m)
				break
			}
		}
	}

	week := &domain.WeekSummary{Targets: u.Targets, Days: make([]domain.DaySummary, 0, len(days))}
	for _, d := range days {
		week.Days = append(week.Days, d.DaySummary)
	}
	return week, nil
}

type daySummary struct {
	domain.DaySummary
}

func newDaySummary(date time.Time, t domain.Targets) *daySummary {
	return &daySummary{domain.DaySummary{
		Date:    date,
		ByType:  make(map[domain.MealType]domain.Totals),
		Targets: t,
	}}
}

func (d *daySummary) add(m *domain.Meal) {
	d.Totals.Add(*m)
	byType := d.ByType[m.MealType]
	byType.Add(*m)
	d.ByType[m.MealType] = byType
	d.Meals = append(d.Meals, *m)
}

func (s *MealService) user(ctx context.Context, telegramID int64) (*domain.User, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *MealService) location(u *domain.User) *time.Location {
	if u.Timezone != "" {
		if loc, err := time.LoadLocation(u.Timezone); err == nil {
			return loc
		}
		s.logger.Warn("unknown user timezone, using default", "user_id", u.TelegramID, "timezone", u.Timezone)
	}
	return s.defaultLoc
}

func (s *MealService) deletePhoto(ctx context.Context, key string) {
	if err := s.photoStg.Delete(ctx, key); err != nil {
		s.logger.Error("failed to delete photo", "storage_key", key, "error", err)
	}
}

// dayBounds returns [start, end) in loc of the calendar date written in date.
func dayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
