package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/report"
	"github.com/vbonduro/calorigram/internal/service"
	"github.com/vbonduro/calorigram/internal/targets"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

type targetsResponse struct {
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
}

type userResponse struct {
	TelegramID    int64           `json:"telegram_id"`
	Name          string          `json:"name"`
	Gender        domain.Gender   `json:"gender"`
	Age           int             `json:"age"`
	HeightCM      float64         `json:"height_cm"`
	WeightKG      float64         `json:"weight_kg"`
	Activity      string          `json:"activity"`
	Goal          domain.Goal     `json:"goal"`
	DailyCalories int             `json:"daily_calories"`
	Targets       targetsResponse `json:"targets"`
	Timezone      string          `json:"timezone"`
}

type estimateResponse struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	DishName       string  `json:"dish_name"`
	Calories       int     `json:"calories"`
	ProteinG       float64 `json:"protein_g"`
	FatG           float64 `json:"fat_g"`
	CarbsG         float64 `json:"carbs_g"`
	WeightG        float64 `json:"weight_g,omitempty"`
	CaloriesSource string  `json:"calories_source"`
	Display        string  `json:"display"`
	Summary        string  `json:"summary"`
}

type mealResponse struct {
	ID          int64     `json:"id"`
	MealType    string    `json:"meal_type"`
	DishName    string    `json:"dish_name"`
	Calories    int       `json:"calories"`
	ProteinG    float64   `json:"protein_g"`
	FatG        float64   `json:"fat_g"`
	CarbsG      float64   `json:"carbs_g"`
	WeightG     float64   `json:"weight_g,omitempty"`
	Description string    `json:"description,omitempty"`
	Display     string    `json:"display"`
	Kind        string    `json:"kind"`
	HasPhoto    bool      `json:"has_photo"`
	EatenAt     time.Time `json:"eaten_at"`
}

type totalsResponse struct {
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
	Meals    int     `json:"meals"`
}

type dayResponse struct {
	Date    string                    `json:"date"`
	Totals  totalsResponse            `json:"totals"`
	ByType  map[string]totalsResponse `json:"by_type"`
	Meals   []mealResponse            `json:"meals"`
	Targets targetsResponse           `json:"targets"`
	Text    string                    `json:"text"`
}

type weekDayResponse struct {
	Date   string         `json:"date"`
	Totals totalsResponse `json:"totals"`
}

type weekResponse struct {
	Days    []weekDayResponse `json:"days"`
	Targets targetsResponse   `json:"targets"`
	Text    string            `json:"text"`
}

func newTargetsResponse(t domain.Targets) targetsResponse {
	return targetsResponse{Calories: t.Calories, ProteinG: t.ProteinG, FatG: t.FatG, CarbsG: t.CarbsG}
}

func newTotalsResponse(t domain.Totals) totalsResponse {
	return totalsResponse{Calories: t.Calories, ProteinG: t.ProteinG, FatG: t.FatG, CarbsG: t.CarbsG, Meals: t.Meals}
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		TelegramID:    u.TelegramID,
		Name:          u.Name,
		Gender:        u.Gender,
		Age:           u.Age,
		HeightCM:      u.HeightCM,
		WeightKG:      u.WeightKG,
		Activity:      string(u.Activity),
		Goal:          u.Goal,
		DailyCalories: u.DailyCalories,
		Targets:       newTargetsResponse(u.Targets),
		Timezone:      u.Timezone,
	}
}

func newEstimateResponse(est *service.Estimate) estimateResponse {
	r := est.Analysis.Result
	return estimateResponse{
		ID:             est.ID,
		Kind:           string(est.Kind),
		DishName:       r.DishName,
		Calories:       r.Calories,
		ProteinG:       r.ProteinG,
		FatG:           r.FatG,
		CarbsG:         r.CarbsG,
		WeightG:        est.Analysis.WeightG,
		CaloriesSource: string(est.Analysis.CaloriesSource),
		Display:        est.Analysis.Display,
		Summary:        report.Estimate(r),
	}
}

func newMealResponse(m *domain.Meal) mealResponse {
	return mealResponse{
		ID:          m.ID,
		MealType:    string(m.MealType),
		DishName:    m.DishName,
		Calories:    m.Calories,
		ProteinG:    m.ProteinG,
		FatG:        m.FatG,
		CarbsG:      m.CarbsG,
		WeightG:     m.WeightG,
		Description: m.Description,
		Display:     m.Display,
		Kind:        string(m.Kind),
		HasPhoto:    m.PhotoKey != nil,
		EatenAt:     m.EatenAt,
	}
}

func newDayResponse(d *domain.DaySummary) dayResponse {
	resp := dayResponse{
		Date:    d.Date.Format(dateLayout),
		Totals:  newTotalsResponse(d.Totals),
		ByType:  make(map[string]totalsResponse, len(d.ByType)),
		Meals:   make([]mealResponse, 0, len(d.Meals)),
		Targets: newTargetsResponse(d.Targets),
		Text:    report.Day(*d),
	}
	for mt, t := range d.ByType {
		resp.ByType[string(mt)] = newTotalsResponse(t)
	}
	for i := range d.Meals {
		resp.Meals = append(resp.Meals, newMealResponse(&d.Meals[i]))
	}
	return resp
}

func newWeekResponse(wk *domain.WeekSummary) weekResponse {
	resp := weekResponse{
		Days:    make([]weekDayResponse, 0, len(wk.Days)),
		Targets: newTargetsResponse(wk.Targets),
		Text:    report.Week(*wk),
	}
	for _, d := range wk.Days {
		resp.Days = append(resp.Days, weekDayResponse{Date: d.Date.Format(dateLayout), Totals: newTotalsResponse(d.Totals)})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// writeServiceError maps service errors to HTTP statuses. Unknown errors are
// logged and reported as 500 without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, op string, attrs ...any) {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrMealNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInputTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrAnalysisUnusable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrEmptyInput),
		errors.Is(err, service.ErrInputTooShort),
		errors.Is(err, service.ErrInvalidMealType),
		errors.Is(err, service.ErrInvalidTimezone),
		errors.Is(err, targets.ErrInvalidProfile):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(op+" failed", append(attrs, "error", err)...)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseID extracts a numeric path variable.
func parseID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
