package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/davidduclam/movietracker/internal/apperr"
)

const maxBodyBytes = 1 << 20

type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Error: code, Message: message})
}

// ReadJSON decodes a single JSON object from the request body. Any decode
// failure is reported as an INVALID_REQUEST_BODY error.
func ReadJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.InvalidBody(err)
	}
	if dec.More() {
		return apperr.InvalidBody(errors.New("trailing data after JSON object"))
	}
	return nil
}

// PathID parses a positive integer URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// RequiredQuery returns the named query parameter or a validation error
// when it is missing or blank.
func RequiredQuery(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", apperr.Validation(name, name+" is required")
	}
	return v, nil
}
