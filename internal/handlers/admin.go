package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/app"
	"github.com/shrimpsizemoose/labscore/internal/models"
	"github.com/shrimpsizemoose/labscore/internal/store"
)

func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	labID, ok := pathID(r, "lab")
	if !ok {
		http.Error(w, "Invalid lab", http.StatusBadRequest)
		return
	}

	var slotID int64
	if raw := r.URL.Query().Get("slot"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			http.Error(w, "Invalid slot", http.StatusBadRequest)
			return
		}
		slotID = id
	}

	ov, err := h.service.Overview(r.Context(), labID, slotID)
	if err != nil {
		logger.Error.Printf("Failed to build overview for lab %d: %v", labID, err)
		http.Error(w, "Failed to build overview", http.StatusInternalServerError)
		return
	}
	if ov == nil {
		http.Error(w, "lab not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, ov)
}

func (h *Handler) HandleGroupDetails(w http.ResponseWriter, r *http.Request) {
	labID, ok := pathID(r, "lab")
	if !ok {
		http.Error(w, "Invalid lab", http.StatusBadRequest)
		return
	}
	groupID, ok := pathID(r, "group")
	if !ok {
		http.Error(w, "Invalid group", http.StatusBadRequest)
		return
	}

	d, err := h.service.GroupDetails(r.Context(), labID, groupID)
	if err != nil {
		logger.Error.Printf("Failed to build details for lab %d group %d: %v", labID, groupID, err)
		http.Error(w, "Failed to build details", http.StatusInternalServerError)
		return
	}
	if d == nil {
		http.Error(w, "lab or group not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleUserDetails(w http.ResponseWriter, r *http.Request) {
	labID, ok := pathID(r, "lab")
	if !ok {
		http.Error(w, "Invalid lab", http.StatusBadRequest)
		return
	}
	userID, ok := pathID(r, "user")
	if !ok {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	d, err := h.service.UserDetails(r.Context(), labID, userID)
	if err != nil {
		logger.Error.Printf("Failed to build details for lab %d user %d: %v", labID, userID, err)
		http.Error(w, "Failed to build details", http.StatusInternalServerError)
		return
	}
	if d == nil {
		http.Error(w, "lab or user not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleCreateExerciseSubmission(w http.ResponseWriter, r *http.Request) {
	var sub models.ExerciseSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sub.ID = 0
	sub.AdminCreated = true

	if err := h.service.CreateExerciseSubmission(r.Context(), &sub); err != nil {
		h.writeSubmissionError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (h *Handler) HandleUpdateExerciseSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid submission id", http.StatusBadRequest)
		return
	}

	var sub models.ExerciseSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sub.ID = id

	if err := h.service.UpdateExerciseSubmission(r.Context(), &sub); err != nil {
		h.writeSubmissionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) HandleDeleteExerciseSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid submission id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteExerciseSubmission(r.Context(), id); err != nil {
		h.writeSubmissionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDeleteFlagSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid submission id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteFlagSubmission(r.Context(), id); err != nil {
		h.writeSubmissionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "user")
	if !ok {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}
	if !h.service.Auth.Enabled() {
		http.Error(w, "auth disabled", http.StatusNotFound)
		return
	}

	info, created, err := h.service.Auth.Tokens().FetchOrCreateUserToken(r.Context(), userID)
	if err != nil {
		logger.Error.Printf("Failed to issue token for user %d: %v", userID, err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, info)
}

func (h *Handler) writeSubmissionError(w http.ResponseWriter, err error) {
	var vErrs validator.ValidationErrors
	switch {
	case errors.As(err, &vErrs):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, app.ErrExerciseNotFound),
		errors.Is(err, app.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logger.Error.Printf("Submission write failed: %v", err)
		http.Error(w, "Failed to save submission", http.StatusInternalServerError)
	}
}
