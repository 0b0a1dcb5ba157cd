// Package targets computes daily calorie and macro goals from a user profile.
package targets

import (
	"errors"
	"fmt"
	"math"

	"github.com/vbonduro/calorigram/internal/domain"
)

// Profile bounds accepted at registration.
const (
	MinAge      = 1
	MaxAge      = 120
	MinHeightCM = 50
	MaxHeightCM = 250
	MinWeightKG = 20
	MaxWeightKG = 300
)

// ErrInvalidProfile wraps every validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

type Profile struct {
	Gender   domain.Gender
	Age      int
	HeightCM float64
	WeightKG float64
	Activity domain.ActivityLevel
	Goal     domain.Goal
}

func (p Profile) Validate() error {
	switch p.Gender {
	case domain.GenderMale, domain.GenderFemale:
	default:
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidProfile, p.Gender)
	}
	if p.Age < MinAge || p.Age > MaxAge {
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidProfile, MinAge, MaxAge)
	}
	if p.HeightCM < MinHeightCM || p.HeightCM > MaxHeightCM {
		return fmt.Errorf("%w: height must be between %d and %d cm", ErrInvalidProfile, MinHeightCM, MaxHeightCM)
	}
	if p.WeightKG < MinWeightKG || p.WeightKG > MaxWeightKG {
		return fmt.Errorf("%w: weight must be between %d and %d kg", ErrInvalidProfile, MinWeightKG, MaxWeightKG)
	}
	if _, ok := activityMultipliers[p.Activity]; !ok {
		return fmt.Errorf("%w: unknown activity level %q", ErrInvalidProfile, p.Activity)
	}
	if _, ok := goalMultipliers[p.Goal]; !ok {
		return fmt.Errorf("%w: unknown goal %q", ErrInvalidProfile, p.Goal)
	}
	return nil
}

var activityMultipliers = map[domain.ActivityLevel]float64{
	domain.ActivityMinimal:  1.2,
	domain.ActivityLight:    1.375,
	domain.ActivityModerate: 1.55,
	domain.ActivityHigh:     1.725,
	domain.ActivityVeryHigh: 1.9,
}

var goalMultipliers = map[domain.Goal]float64{
	domain.GoalLose:     0.8,
	domain.GoalMaintain: 1.0,
	domain.GoalGain:     1.2,
}

// macroRatios are protein and fat grams per kg of body weight.
var macroRatios = map[domain.ActivityLevel]struct{ protein, fat float64 }{
	domain.ActivityMinimal:  {1.0, 0.6},
	domain.ActivityLight:    {1.2, 0.7},
	domain.ActivityModerate: {1.4, 0.8},
	domain.ActivityHigh:     {1.6, 0.9},
	domain.ActivityVeryHigh: {1.8, 1.0},
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal.
func BMR(p Profile) float64 {
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Gender == domain.GenderMale {
		return bmr + 5
	}
	return bmr - 161
}

// DailyCalories is the maintenance intake: BMR scaled by activity.
// Unknown activity levels count as moderate.
func DailyCalories(p Profile) int {
	m, ok := activityMultipliers[p.Activity]
	if !ok {
		m = activityMultipliers[domain.ActivityModerate]
	}
	return int(math.Round(BMR(p) * m))
}

// TargetCalories adjusts daily calories for the user's goal.
func TargetCalories(daily int, goal domain.Goal) int {
	m, ok := goalMultipliers[goal]
	if !ok {
		return daily
	}
	return int(math.Round(float64(daily) * m))
}

// Macros splits target calories into protein, fat and carbs grams. Protein
// and fat follow body weight; carbs take whatever calories are left.
func Macros(p Profile, targetCalories int) (protein, fat, carbs float64) {
	r, ok := macroRatios[p.Activity]
	if !ok {
		r = macroRatios[domain.ActivityMinimal]
	}
	switch p.Goal {
	case domain.GoalLose:
		r.protein += 0.2
	case domain.GoalGain:
		r.fat += 0.2
	}
	protein = p.WeightKG * r.protein
	fat = p.WeightKG * r.fat
	carbs = math.Max(0, (float64(targetCalories)-protein*4-fat*9)/4)
	return round1(protein), round1(fat), round1(carbs)
}

// Compute returns maintenance calories and the goal-adjusted targets.
func Compute(p Profile) (daily int, t domain.Targets) {
	daily = DailyCalories(p)
	t.Calories = TargetCalories(daily, p.Goal)
	t.ProteinG, t.FatG, t.CarbsG = Macros(p, t.Calories)
	return daily, t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
