package utils

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body shape of every JSON response.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK writes {success: true, data}.
func OK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Message writes {success: true, message}.
func Message(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: true, Message: msg})
}

// Fail writes {success: false, message}.
func Fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Message: msg})
}

// FailValidation writes a 400 with the offending fields.
func FailValidation(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, Envelope{Success: false, Message: "Validation failed", Errors: fields})
}
