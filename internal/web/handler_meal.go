package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/photostore"
	"github.com/vbonduro/calorigram/internal/service"
)

const (
	maxJSONBody = 64 << 10
	// maxUploadSize leaves room for the multipart envelope and text fields
	// around a photo of service.MaxImageSize bytes.
	maxUploadSize = service.MaxImageSize + 1<<20
)

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

type textMealRequest struct {
	Description string          `json:"description"`
	MealType    domain.MealType `json:"meal_type"`
}

// handleEstimateText analyzes a description without logging it.
func (s *Server) handleEstimateText(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req textMealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	est, err := s.meals.EstimateText(r.Context(), uid, req.Description)
	if err != nil {
		s.writeServiceError(w, err, "estimate text", "user_id", uid)
		return
	}

	writeJSON(w, http.StatusOK, newEstimateResponse(est), s.logger)
}

func (s *Server) handleLogTextMeal(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req textMealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Reject a bad meal type before spending a model call on it.
	if !req.MealType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid meal type")
		return
	}

	est, err := s.meals.EstimateText(r.Context(), uid, req.Description)
	if err != nil {
		s.writeServiceError(w, err, "estimate text", "user_id", uid)
		return
	}
	s.logEstimate(w, r, est, req.MealType)
}

// handleLogPhotoMeal accepts multipart form fields "image" (required),
// "meal_type" (required) and "caption" (optional).
func (s *Server) handleLogPhotoMeal(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	mealType := domain.MealType(r.FormValue("meal_type"))
	if !mealType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid meal type")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		s.logger.Error("read upload failed", "user_id", uid, "error", err)
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	est, err := s.meals.EstimatePhoto(r.Context(), uid, imageData, mimeType, r.FormValue("caption"))
	if err != nil {
		s.writeServiceError(w, err, "estimate photo", "user_id", uid)
		return
	}
	s.logEstimate(w, r, est, mealType)
}

func (s *Server) logEstimate(w http.ResponseWriter, r *http.Request, est *service.Estimate, mealType domain.MealType) {
	meal, err := s.meals.LogMeal(r.Context(), est, mealType)
	if err != nil {
		s.writeServiceError(w, err, "log meal", "user_id", est.TelegramID)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Meal     mealResponse     `json:"meal"`
		Estimate estimateResponse `json:"estimate"`
	}{newMealResponse(meal), newEstimateResponse(est)}, s.logger)
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	mealID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid meal id")
		return
	}

	if err := s.meals.DeleteMeal(r.Context(), uid, mealID); err != nil {
		s.writeServiceError(w, err, "delete meal", "user_id", uid, "meal_id", mealID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetMealPhoto(w http.ResponseWriter, r *http.Request) {
	uid, err := parseID(r, "uid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	mealID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid meal id")
		return
	}

	reader, mimeType, err := s.meals.MealPhoto(r.Context(), uid, mealID)
	if errors.Is(err, photostore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	if err != nil {
		s.writeServiceError(w, err, "get meal photo", "user_id", uid, "meal_id", mealID)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "user_id", uid, "meal_id", mealID, "error", err)
	}
}
