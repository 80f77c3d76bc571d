package utils

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorBody is the JSON error envelope every handler writes.
type ErrorBody struct {
	Message     string     `json:"message"`
	Details     string     `json:"details,omitempty"`
	Field       string     `json:"field,omitempty"`
	Submitted   bool       `json:"submitted,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

type MessageResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MaxBodyBytes caps every decoded request body.
const MaxBodyBytes = 1 << 20

// WriteJSON encodes body before touching the response, so an unencodable
// value becomes a 500 instead of a truncated reply. Write errors mean the
// client went away and are dropped.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(ErrorResponse("Internal server error", err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func WriteError(w http.ResponseWriter, status int, message, details string) {
	WriteJSON(w, status, ErrorBody{Message: message, Details: details})
}

func ErrorResponse(message string, err error) ErrorBody {
	body := ErrorBody{Message: message}
	if err != nil {
		body.Details = err.Error()
	}
	return body
}

// DecodeJSON decodes the request body into dst, reading at most
// MaxBodyBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer body.Close()
	return json.NewDecoder(body).Decode(dst)
}
