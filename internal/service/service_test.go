package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/calorigram/internal/db"
	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/photostore"
	"github.com/vbonduro/calorigram/internal/store"
	"github.com/vbonduro/calorigram/internal/targets"
	"github.com/vbonduro/calorigram/internal/vision"
)

const appleAnswer = "🍽️ Анализ блюда:\n\nНазвание: Яблоко\nВес: 3000г\nКалорийность: 1500 ккал\n\n📈 Общее БЖУ в блюде:\n• Белки: 3,0г\n• Жиры: 1,5г\n• Углеводы: 120,0г"

// stubVision is a minimal vision.Analyzer for tests.
type stubVision struct {
	mu     sync.Mutex
	result *vision.AnalysisResult
	err    error
	calls  int
	notes  []string
}

func (s *stubVision) AnalyzeImage(_ context.Context, r io.Reader, _ string, note string) (*vision.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.notes = append(s.notes, note)
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return s.result, s.err
}

func (s *stubVision) AnalyzeText(_ context.Context, description string) (*vision.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.notes = append(s.notes, description)
	return s.result, s.err
}

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	n       int
	saveErr error
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{saved: make(map[string][]byte)}
}

func (s *stubPhotoStore) Save(_ context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	key := prefix + "/photo" + string(rune('0'+s.n)) + photostore.ExtForMIME(mimeType)
	s.saved[key] = data
	return key, nil
}

func (s *stubPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[key]
	if !ok {
		return nil, "", photostore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), photostore.MIMEForKey(key), nil
}

func (s *stubPhotoStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved, key)
	return nil
}

func (s *stubPhotoStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// moscow is UTC+3 with no DST.
var moscow = time.FixedZone("MSK", 3*60*60)

type testEnv struct {
	db       *sql.DB
	profiles *ProfileService
	meals    *MealService
	vision   *stubVision
	photos   *stubPhotoStore
	clock    *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	users := store.NewUserStore(d)
	env := &testEnv{
		db:     d,
		vision: &stubVision{result: &vision.AnalysisResult{RawResponse: appleAnswer, Model: "stub"}},
		photos: newStubPhotoStore(),
	}
	now := time.Date(2024, 10, 14, 9, 30, 0, 0, moscow)
	env.clock = &now

	env.profiles = NewProfileService(users, "", slog.Default())
	env.meals = NewMealService(store.NewMealStore(d), users, env.vision, env.photos, NewLimiter(0, 0), time.UTC, slog.Default())
	env.meals.now = func() time.Time { return *env.clock }
	return env
}

func (e *testEnv) register(t *testing.T, telegramID int64) *domain.User {
	t.Helper()
	u, err := e.profiles.Register(context.Background(), Registration{
		TelegramID: telegramID,
		Name:       "Иван",
		Profile: targets.Profile{
			Gender:   domain.GenderMale,
			Age:      30,
			HeightCM: 180,
			WeightKG: 80,
			Activity: domain.ActivityModerate,
			Goal:     domain.GoalMaintain,
		},
		Timezone: "Europe/Moscow",
	})
	require.NoError(t, err)
	return u
}

// logAt logs an apple estimate as if it were eaten at t.
func (e *testEnv) logAt(t *testing.T, telegramID int64, mealType domain.MealType, at time.Time) *domain.Meal {
	t.Helper()
	saved := *e.clock
	*e.clock = at
	defer func() { *e.clock = saved }()

	est, err := e.meals.EstimateText(context.Background(), telegramID, "яблоки 3 кг")
	require.NoError(t, err)
	m, err := e.meals.LogMeal(context.Background(), est, mealType)
	require.NoError(t, err)
	return m
}

func TestProfileServiceRegister(t *testing.T) {
	env := newTestEnv(t)

	u := env.register(t, 42)
	assert.Equal(t, int64(42), u.TelegramID)
	assert.Equal(t, 2759, u.DailyCalories)
	assert.Equal(t, 2759, u.Targets.Calories)
	assert.InDelta(t, 112, u.Targets.ProteinG, 1e-9)
	assert.InDelta(t, 64, u.Targets.FatG, 1e-9)
	assert.Equal(t, "Europe/Moscow", u.Timezone)

	got, err := env.profiles.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, u.Targets, got.Targets)
}

func TestProfileServiceRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	valid := targets.Profile{
		Gender: domain.GenderFemale, Age: 25, HeightCM: 165, WeightKG: 60,
		Activity: domain.ActivityLight, Goal: domain.GoalLose,
	}

	bad := valid
	bad.Age = 0
	_, err := env.profiles.Register(ctx, Registration{TelegramID: 1, Profile: bad})
	assert.ErrorIs(t, err, targets.ErrInvalidProfile)

	_, err = env.profiles.Register(ctx, Registration{TelegramID: 1, Profile: valid, Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, ErrInvalidTimezone)

	u, err := env.profiles.Register(ctx, Registration{TelegramID: 1, Profile: valid})
	require.NoError(t, err)
	assert.Equal(t, "UTC", u.Timezone)
}

func TestProfileServiceGetMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.profiles.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfileServiceSetTimezone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 7)

	require.NoError(t, env.profiles.SetTimezone(ctx, 7, "Asia/Yekaterinburg"))
	u, err := env.profiles.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Yekaterinburg", u.Timezone)

	assert.ErrorIs(t, env.profiles.SetTimezone(ctx, 7, "nowhere"), ErrInvalidTimezone)
	assert.ErrorIs(t, env.profiles.SetTimezone(ctx, 8, "UTC"), ErrUserNotFound)
}

func TestMealServiceEstimateText(t *testing.T) {
	env := newTestEnv(t)

	est, err := env.meals.EstimateText(context.Background(), 1, "  яблоки 3 кг ")
	require.NoError(t, err)
	assert.NotEmpty(t, est.ID)
	assert.Equal(t, domain.KindText, est.Kind)
	assert.Equal(t, "яблоки 3 кг", est.Description)
	assert.Equal(t, 1500, est.Analysis.Result.Calories)
	assert.Equal(t, "Яблоко", est.Analysis.Result.DishName)
	assert.Equal(t, "stub", est.Model)
	assert.Nil(t, est.Image)
}

func TestMealServiceEstimateTextInputLimits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "blank", input: "   ", want: ErrEmptyInput},
		{name: "too short", input: "суп", want: ErrInputTooShort},
		{name: "too long", input: strings.Repeat("щ", MaxDescriptionRunes+1), want: ErrInputTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.meals.EstimateText(ctx, 1, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, env.vision.calls, "rejected input never reaches the model")

	_, err := env.meals.EstimateText(ctx, 1, strings.Repeat("щ", MaxDescriptionRunes))
	assert.NoError(t, err)
}

func TestMealServiceEstimateUnusable(t *testing.T) {
	env := newTestEnv(t)
	env.vision.result = &vision.AnalysisResult{RawResponse: "Не могу определить блюдо на этом изображении."}

	_, err := env.meals.EstimateText(context.Background(), 1, "что-то непонятное")
	assert.ErrorIs(t, err, ErrAnalysisUnusable)
}

func TestMealServiceEstimateVisionError(t *testing.T) {
	env := newTestEnv(t)
	env.vision.err = errors.New("model unavailable")

	_, err := env.meals.EstimateText(context.Background(), 1, "яблоки 3 кг")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestMealServiceEstimatePhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	img := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	est, err := env.meals.EstimatePhoto(ctx, 1, img, "image/jpeg", "")
	require.NoError(t, err)
	assert.Equal(t, domain.KindPhoto, est.Kind)
	assert.Equal(t, img, est.Image)
	assert.Equal(t, "image/jpeg", est.ImageMIME)

	est, err = env.meals.EstimatePhoto(ctx, 1, img, "image/jpeg", " 3 кг ")
	require.NoError(t, err)
	assert.Equal(t, domain.KindPhotoText, est.Kind)
	assert.Equal(t, []string{"", "3 кг"}, env.vision.notes)

	assert.Zero(t, env.photos.count(), "photos are stored only when a meal is logged")
}

func TestMealServiceEstimatePhotoLimits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.meals.EstimatePhoto(ctx, 1, nil, "image/jpeg", "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = env.meals.EstimatePhoto(ctx, 1, make([]byte, MaxImageSize+1), "image/jpeg", "")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = env.meals.EstimatePhoto(ctx, 1, []byte{1}, "image/jpeg", strings.Repeat("a", MaxDescriptionRunes+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	assert.Zero(t, env.vision.calls)
}

func TestMealServiceEstimatePhotoFallbackName(t *testing.T) {
	env := newTestEnv(t)
	env.vision.result = &vision.AnalysisResult{RawResponse: "Калорийность: 450 ккал на всю тарелку"}

	est, err := env.meals.EstimatePhoto(context.Background(), 1, []byte{1, 2, 3}, "image/png", "")
	require.NoError(t, err)
	assert.Equal(t, photoDishName, est.Analysis.Result.DishName)
	assert.Equal(t, 450, est.Analysis.Result.Calories)
}

func TestMealServiceRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.meals.limiter = NewLimiter(1, 1)
	ctx := context.Background()

	_, err := env.meals.EstimateText(ctx, 1, "яблоки 3 кг")
	require.NoError(t, err)
	_, err = env.meals.EstimateText(ctx, 1, "яблоки 3 кг")
	assert.ErrorIs(t, err, ErrRateLimited)
	_, err = env.meals.EstimatePhoto(ctx, 1, []byte{1}, "image/jpeg", "")
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = env.meals.EstimateText(ctx, 2, "яблоки 3 кг")
	assert.NoError(t, err)
	assert.Equal(t, 2, env.vision.calls)
}

func TestMealServiceLogMeal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1)

	est, err := env.meals.EstimatePhoto(ctx, 1, []byte{0xFF, 0xD8}, "image/jpeg", "3 кг")
	require.NoError(t, err)

	m, err := env.meals.LogMeal(ctx, est, domain.MealLunch)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, domain.MealLunch, m.MealType)
	assert.Equal(t, "Яблоко", m.DishName)
	assert.Equal(t, 1500, m.Calories)
	assert.InDelta(t, 3000, m.WeightG, 1e-9)
	assert.Equal(t, domain.KindPhotoText, m.Kind)
	assert.Equal(t, est.ID, m.AnalysisID)
	require.NotNil(t, m.PhotoKey)
	assert.True(t, strings.HasPrefix(*m.PhotoKey, "user_1/"))
	assert.Equal(t, 1, env.photos.count())

	rc, mimeType, err := env.meals.MealPhoto(ctx, 1, m.ID)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data)
	assert.Equal(t, "image/jpeg", mimeType)

	_, _, err = env.meals.MealPhoto(ctx, 2, m.ID)
	assert.ErrorIs(t, err, ErrMealNotFound, "photos are scoped to their owner")
}

func TestMealServiceLogMealErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	est, err := env.meals.EstimateText(ctx, 1, "яблоки 3 кг")
	require.NoError(t, err)

	_, err = env.meals.LogMeal(ctx, est, domain.MealType("brunch"))
	assert.ErrorIs(t, err, ErrInvalidMealType)

	_, err = env.meals.LogMeal(ctx, est, domain.MealSnack)
	assert.ErrorIs(t, err, ErrUserNotFound)

	env.register(t, 1)
	env.photos.saveErr = errors.New("disk full")
	photoEst, err := env.meals.EstimatePhoto(ctx, 1, []byte{1}, "image/jpeg", "")
	require.NoError(t, err)
	_, err = env.meals.LogMeal(ctx, photoEst, domain.MealSnack)
	assert.Error(t, err)

	day, err := env.meals.Today(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, day.Totals.Meals)
}

func TestMealServiceDeleteMeal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1)

	est, err := env.meals.EstimatePhoto(ctx, 1, []byte{0xFF, 0xD8}, "image/jpeg", "")
	require.NoError(t, err)
	m, err := env.meals.LogMeal(ctx, est, domain.MealDinner)
	require.NoError(t, err)
	require.Equal(t, 1, env.photos.count())

	assert.ErrorIs(t, env.meals.DeleteMeal(ctx, 2, m.ID), ErrMealNotFound)

	require.NoError(t, env.meals.DeleteMeal(ctx, 1, m.ID))
	assert.Zero(t, env.photos.count())
	assert.ErrorIs(t, env.meals.DeleteMeal(ctx, 1, m.ID), ErrMealNotFound)
}

func TestMealServiceDaySummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1)

	// 00:30 MSK on the 14th is still the 13th in UTC; the summary follows
	// the user's timezone.
	env.logAt(t, 1, domain.MealBreakfast, time.Date(2024, 10, 14, 0, 30, 0, 0, moscow))
	env.logAt(t, 1, domain.MealLunch, time.Date(2024, 10, 14, 13, 0, 0, 0, moscow))
	env.logAt(t, 1, domain.MealLunch, time.Date(2024, 10, 14, 14, 0, 0, 0, moscow))
	env.logAt(t, 1, domain.MealDinner, time.Date(2024, 10, 13, 23, 59, 0, 0, moscow))

	day, err := env.meals.Today(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, day.Totals.Meals)
	assert.Equal(t, 4500, day.Totals.Calories)
	assert.InDelta(t, 9.0, day.Totals.ProteinG, 1e-9)
	assert.Equal(t, 1500, day.ByType[domain.MealBreakfast].Calories)
	assert.Equal(t, 2, day.ByType[domain.MealLunch].Meals)
	_, hasDinner := day.ByType[domain.MealDinner]
	assert.False(t, hasDinner)
	assert.Equal(t, 2759, day.Targets.Calories)
	assert.Equal(t, 14, day.Date.Day())
	require.Len(t, day.Meals, 3)
	assert.Equal(t, domain.MealBreakfast, day.Meals[0].MealType)

	prev, err := env.meals.DaySummary(ctx, 1, time.Date(2024, 10, 13, 12, 0, 0, 0, moscow))
	require.NoError(t, err)
	assert.Equal(t, 1, prev.Totals.Meals)

	_, err = env.meals.Today(ctx, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMealServiceWeekSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1)

	env.logAt(t, 1, domain.MealLunch, time.Date(2024, 10, 14, 8, 0, 0, 0, moscow))
	env.logAt(t, 1, domain.MealLunch, time.Date(2024, 10, 12, 13, 0, 0, 0, moscow))
	env.logAt(t, 1, domain.MealSnack, time.Date(2024, 10, 8, 0, 10, 0, 0, moscow))
	// Outside the window.
	env.logAt(t, 1, domain.MealSnack, time.Date(2024, 10, 7, 23, 50, 0, 0, moscow))

	week, err := env.meals.WeekSummary(ctx, 1)
	require.NoError(t, err)
	require.Len(t, week.Days, 7)
	assert.Equal(t, 8, week.Days[0].Date.Day())
	assert.Equal(t, 14, week.Days[6].Date.Day())

	calories := make([]int, 0, 7)
	for _, d := range week.Days {
		calories = append(calories, d.Totals.Calories)
	}
	assert.Equal(t, []int{1500, 0, 0, 0, 1500, 0, 1500}, calories)
	assert.Equal(t, 2759, week.Targets.Calories)
}

func TestMealServiceClearToday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1)

	env.logAt(t, 1, domain.MealLunch, time.Date(2024, 10, 13, 13, 0, 0, 0, moscow))
	est, err := env.meals.EstimatePhoto(ctx, 1, []byte{1, 2}, "image/png", "")
	require.NoError(t, err)
	_, err = env.meals.LogMeal(ctx, est, domain.MealBreakfast)
	require.NoError(t, err)
	env.logAt(t, 1, domain.MealSnack, time.Date(2024, 10, 14, 1, 0, 0, 0, moscow))

	n, err := env.meals.ClearToday(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, env.photos.count())

	day, err := env.meals.Today(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, day.Totals.Meals)

	prev, err := env.meals.DaySummary(ctx, 1, time.Date(2024, 10, 13, 12, 0, 0, 0, moscow))
	require.NoError(t, err)
	assert.Equal(t, 1, prev.Totals.Meals)
}

func TestDayBounds(t *testing.T) {
	from, to := dayBounds(time.Date(2024, 10, 13, 22, 0, 0, 0, time.UTC), moscow)
	assert.Equal(t, time.Date(2024, 10, 13, 0, 0, 0, 0, moscow), from)
	assert.Equal(t, time.Date(2024, 10, 14, 0, 0, 0, 0, moscow), to)

	// Callers convert "now" into the user's zone first.
	from, _ = dayBounds(time.Date(2024, 10, 13, 22, 0, 0, 0, time.UTC).In(moscow), moscow)
	assert.Equal(t, time.Date(2024, 10, 14, 0, 0, 0, 0, moscow), from)
}
