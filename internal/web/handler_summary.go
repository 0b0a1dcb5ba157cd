package web

import (
	"net/http"
	"time"
)

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	day, err := s.meals.Today(r.Context(), uid)
	if err != nil {
		s.writeServiceError(w, err, "today summary", "user_id", uid)
		return
	}

	writeJSON(w, http.StatusOK, newDayResponse(day), s.logger)
}

// handleDay serves /days/{date} where date is YYYY-MM-DD in the user's
// timezone.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	date, err := time.Parse(dateLayout, r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	day, err := s.meals.DaySummary(r.Context(), uid, date)
	if err != nil {
		s.writeServiceError(w, err, "day summary", "user_id", uid)
		return
	}

	writeJSON(w, http.StatusOK, newDayResponse(day), s.logger)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	week, err := s.meals.WeekSummary(r.Context(), uid)
	if err != nil {
		s.writeServiceError(w, err, "week summary", "user_id", uid)
		return
	}

	writeJSON(w, http.StatusOK, newWeekResponse(week), s.logger)
}

func (s *Server) handleClearToday(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	n, err := s.meals.ClearToday(r.Context(), uid)
	if err != nil {
		s.writeServiceError(w, err, "clear today", "user_id", uid)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": n}, s.logger)
}
