package common

import (
	"encoding/json"
	"net/http"
)

// FailureBody is the envelope returned on every fault path.
type FailureBody struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONOK renders a success envelope: {"ok": true, <key>: <v>}.
func JSONOK(w http.ResponseWriter, status int, key string, v any) {
	JSON(w, status, map[string]any{"ok": true, key: v})
}

// JSONError renders an error response using the canonical failure envelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, FailureBody{
		Error:   code,
		Message: message,
		Details: details,
	})
}
