package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/app"
)

type flagRequest struct {
	Code string `json:"code"`
}

// HandleSubmitFlag is the participant route. It authenticates by user id and
// bearer token only; the admin headers are never asked for here.
func (h *Handler) HandleSubmitFlag(w http.ResponseWriter, r *http.Request) {
	labID, ok := pathID(r, "lab")
	if !ok {
		http.Error(w, "Invalid lab", http.StatusBadRequest)
		return
	}

	userID, err := strconv.ParseInt(r.Header.Get(h.service.Config.API.UserIDHeader), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Invalid user id specified", http.StatusUnauthorized)
		return
	}

	if err := h.service.Authenticate(r, userID); err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.flags.Allow(userID) {
		http.Error(w, "Too many flag submissions", http.StatusTooManyRequests)
		return
	}

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		http.Error(w, "Missing flag code", http.StatusBadRequest)
		return
	}

	sub, err := h.service.SubmitFlag(r.Context(), labID, userID, code)
	switch {
	case errors.Is(err, app.ErrFlagNotFound):
		http.Error(w, "Wrong flag", http.StatusNotFound)
		return
	case errors.Is(err, app.ErrFlagAlreadySubmitted):
		http.Error(w, "Flag already submitted", http.StatusConflict)
		return
	case err != nil && sub == nil:
		logger.Error.Printf("Failed to submit flag for user %d in lab %d: %v", userID, labID, err)
		http.Error(w, "Failed to submit flag", http.StatusInternalServerError)
		return
	case err != nil:
		// stored, but the cache could not be invalidated
		logger.Error.Printf("Flag %d stored for user %d: %v", sub.FlagID, userID, err)
		http.Error(w, "Flag stored, scoreboard refresh failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}
