package domain

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ActivityLevel string

const (
	ActivityMinimal  ActivityLevel = "minimal"
	ActivityLight    ActivityLevel = "light"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
	ActivityVeryHigh ActivityLevel = "very_high"
)

type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes lists meal types in the order they are shown to users.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

func (t MealType) Valid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// Title is the Russian label used in chat messages.
func (t MealType) Title() string {
	switch t {
	case MealBreakfast:
		return "Завтрак"
	case MealLunch:
		return "Обед"
	case MealDinner:
		return "Ужин"
	case MealSnack:
		return "Перекус"
	}
	return string(t)
}

// AnalysisKind records what the user sent for a meal.
type AnalysisKind string

const (
	KindPhoto     AnalysisKind = "photo"
	KindText      AnalysisKind = "text"
	KindPhotoText AnalysisKind = "photo_text"
)

// Targets are daily nutrition goals derived from a profile.
type Targets struct {
	Calories int
	ProteinG float64
	FatG     float64
	CarbsG   float64
}

type User struct {
	ID            int64
	TelegramID    int64
	Name          string
	Gender        Gender
	Age           int
	HeightCM      float64
	WeightKG      float64
	Activity      ActivityLevel
	Goal          Goal
	DailyCalories int
	Targets       Targets
	Timezone      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Meal struct {
	ID          int64
	TelegramID  int64
	MealType    MealType
	DishName    string
	Calories    int
	ProteinG    float64
	FatG        float64
	CarbsG      float64
	WeightG     float64
	Description string
	Display     string
	Kind        AnalysisKind
	PhotoKey    *string
	PhotoMIME   string
	AnalysisID  string
	EatenAt     time.Time
	CreatedAt   time.Time
}

// Totals sums calories and macros over a set of meals.
type Totals struct {
	Calories int
	ProteinG float64
	FatG     float64
	CarbsG   float64
	Meals    int
}

func (t *Totals) Add(m Meal) {
	t.Calories += m.Calories
	t.ProteinG += m.ProteinG
	t.FatG += m.FatG
	t.CarbsG += m.CarbsG
	t.Meals++
}

// DaySummary is one calendar day of meals in the user's timezone.
type DaySummary struct {
	Date    time.Time
	Totals  Totals
	ByType  map[MealType]Totals
	Meals   []Meal
	Targets Targets
}

// WeekSummary holds seven consecutive days ending with the most recent one.
type WeekSummary struct {
	Days    []DaySummary
	Targets Targets
}
