package httpapi

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope used by every JSON endpoint
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondJSON writes a JSON response with the given status code
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError writes a failure envelope
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, Response{Success: false, Error: message})
}
