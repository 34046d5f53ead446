package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/CrowderSoup/taskboard/board"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeView answers with the board view plus any extra top-level fields.
func writeView(w http.ResponseWriter, status int, view board.View, extra map[string]any) {
	body := map[string]any{
		"status": "success",
		"data":   view,
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeBoardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, board.ErrMissingField),
		errors.Is(err, board.ErrUnknownColumn),
		errors.Is(err, board.ErrNotEditing):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Error handling board request: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}
