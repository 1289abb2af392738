package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response shape shared by every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON writes a success envelope.
func JSON(w http.ResponseWriter, status int, data any, message string) {
	write(w, status, Envelope{Success: true, Message: message, Data: data})
}

// JSONWithMeta writes a success envelope carrying pagination metadata.
func JSONWithMeta(w http.ResponseWriter, status int, data any, meta any, message string) {
	write(w, status, Envelope{Success: true, Message: message, Data: data, Meta: meta})
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Message: message})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
