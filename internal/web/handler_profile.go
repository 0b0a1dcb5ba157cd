package web

import (
	"net/http"

	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/service"
	"github.com/vbonduro/calorigram/internal/targets"
)

type registerRequest struct {
	Name     string               `json:"name"`
	Gender   domain.Gender        `json:"gender"`
	Age      int                  `json:"age"`
	HeightCM float64              `json:"height_cm"`
	WeightKG float64              `json:"weight_kg"`
	Activity domain.ActivityLevel `json:"activity"`
	Goal     domain.Goal          `json:"goal"`
	Timezone string               `json:"timezone"`
}

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.profiles.Register(r.Context(), service.Registration{
		TelegramID: uid,
		Name:       req.Name,
		Profile: targets.Profile{
			Gender:   req.Gender,
			Age:      req.Age,
			HeightCM: req.HeightCM,
			WeightKG: req.WeightKG,
			Activity: req.Activity,
			Goal:     req.Goal,
		},
		Timezone: req.Timezone,
	})
	if err != nil {
		s.writeServiceError(w, err, "register", "user_id", uid)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(u), s.logger)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	u, err := s.profiles.Get(r.Context(), uid)
	if err != nil {
		s.writeServiceError(w, err, "get profile", "user_id", uid)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(u), s.logger)
}

func (s *Server) handleSetTimezone(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req timezoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.profiles.SetTimezone(r.Context(), uid, req.Timezone); err != nil {
		s.writeServiceError(w, err, "set timezone", "user_id", uid)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
