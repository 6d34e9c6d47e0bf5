// Package response writes the JSON envelope shared by every API handler.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ultrahd-dev/course-catalog-app/internal/apperr"
	"github.com/Ultrahd-dev/course-catalog-app/internal/logging"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    interface{}         `json:"data,omitempty"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

// JSON writes an envelope with the given status.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.Warnf("write response: %v", err)
	}
}

// OK writes a 200 envelope carrying data.
func OK(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Fail writes a failure envelope with an explicit status.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// Error maps err to a status through apperr and writes it. Unexpected errors
// are logged and reported without detail.
func Error(w http.ResponseWriter, err error, authenticated bool) {
	status := apperr.HTTPStatus(err, authenticated)
	if status == http.StatusInternalServerError {
		logging.Errorf("unhandled error: %v", err)
		Fail(w, status, "Internal server error")
		return
	}

	env := Envelope{Success: false, Message: err.Error()}
	var e *apperr.Error
	if errors.As(err, &e) {
		env.Fields = e.Fields
	}
	JSON(w, status, env)
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
