package common

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
	// Failures lists every handle whose fetch failed, when there were any.
	Failures any `json:"failures,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message, Status: code})
}

func RespondWithFailures[T any](w http.ResponseWriter, code int, message string, failures []T) {
	RespondWithJSON(w, code, ErrorResponse{Error: message, Status: code, Failures: failures})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode response","status":500}`))
		return
	}
	w.WriteHeader(code)
	w.Write(body)
}
