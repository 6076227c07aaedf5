package utils

import (
	"encoding/json"
	"net/http"

	"aggies-attic/internal/apperr"
)

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type MessageBody struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps err through apperr and writes {message, code}.
func WriteError(w http.ResponseWriter, err error) {
	status, msg, kind := apperr.Public(err)
	_ = WriteJSON(w, status, ErrorBody{Message: msg, Code: string(kind)})
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	_ = WriteJSON(w, status, MessageBody{Message: msg})
}

// DecodeJSON decodes the request body into dst, mapping syntax errors to a
// validation error.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validationf("Invalid request body: %v", err)
	}
	return nil
}
