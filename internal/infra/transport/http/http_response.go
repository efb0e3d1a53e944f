package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxRequestBodyBytes bounds JSON request bodies.
const MaxRequestBodyBytes = 1 << 20

// ErrMalformedBody is returned when a request body is not valid JSON for the target type.
var ErrMalformedBody = errors.New("malformed request body")

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// WriteError writes a JSON error reply. The message defaults to the status text.
func WriteError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	if message == "" {
		message = http.StatusText(status)
	}

	_ = WriteJSON(w, status, ErrorResponse{Error: message, Fields: fields})
}

// DecodeJSON decodes the request body into v.
// Any decoding failure is joined with ErrMalformedBody.
func DecodeJSON(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, MaxRequestBodyBytes)

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Join(ErrMalformedBody, fmt.Errorf("decode body: %w", err))
	}

	return nil
}
