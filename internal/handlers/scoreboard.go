package handlers

import (
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/scoring"
)

type scoreboardResponse struct {
	LabID      int64           `json:"lab_id"`
	Entries    []scoring.Entry `json:"entries"`
	BuiltAt    time.Time       `json:"built_at"`
	ValidUntil time.Time       `json:"valid_until"`
}

func (h *Handler) HandleScoreboard(w http.ResponseWriter, r *http.Request) {
	labID := scoring.AllLabs
	if r.PathValue("lab") != "" {
		id, ok := pathID(r, "lab")
		if !ok {
			http.Error(w, "Invalid lab", http.StatusBadRequest)
			return
		}
		labID = id
	}

	board, err := h.service.Scoreboard(r.Context(), labID)
	if err != nil {
		logger.Error.Printf("Failed to build scoreboard for lab %d: %v", labID, err)
		http.Error(w, "Failed to build scoreboard", http.StatusInternalServerError)
		return
	}
	if board == nil {
		http.Error(w, "scoreboard unavailable", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, scoreboardResponse{
		LabID:      board.LabID,
		Entries:    board.Displayed(),
		BuiltAt:    board.BuiltAt,
		ValidUntil: board.ValidUntil,
	})
}

func (h *Handler) HandleDefaultLab(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "group")
	if !ok {
		http.Error(w, "Invalid group", http.StatusBadRequest)
		return
	}

	lab, err := h.service.DefaultLab(r.Context(), groupID)
	if err != nil {
		logger.Error.Printf("Failed to pick default lab for group %d: %v", groupID, err)
		http.Error(w, "Failed to pick default lab", http.StatusInternalServerError)
		return
	}
	if lab == nil {
		http.Error(w, "no lab scheduled", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, lab)
}
