package httputil

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/davidduclam/movietracker/internal/apperr"
	"github.com/davidduclam/movietracker/internal/db"
	"github.com/davidduclam/movietracker/internal/tmdb"
)

// WriteServiceError maps an error returned by a service to a status code
// and error body. Server-side failures are logged on the request logger.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := Classify(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Int("status", status).Str("code", body.Error).Msg("request failed")
	}
	WriteJSON(w, status, body)
}

// Classify returns the HTTP status and body for err.
func Classify(err error) (int, ErrorBody) {
	var ce *tmdb.ClientError
	if errors.As(err, &ce) {
		return classifyTMDB(ce)
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return statusForKind(ae.Kind), ErrorBody{Error: ae.Code, Message: ae.Message}
	}

	if db.IsIntegrityViolation(err) {
		return http.StatusConflict, ErrorBody{Error: "CONSTRAINT_VIOLATION", Message: "Duplicate or invalid data"}
	}

	return http.StatusInternalServerError, ErrorBody{Error: "INTERNAL", Message: "internal server error"}
}

func classifyTMDB(ce *tmdb.ClientError) (int, ErrorBody) {
	switch {
	case ce.StatusCode >= 400 && ce.StatusCode < 500:
		return ce.StatusCode, ErrorBody{Error: "tmdb_client_error", Message: ce.Error()}
	case ce.StatusCode >= 500 && ce.StatusCode < 600:
		return ce.StatusCode, ErrorBody{Error: "tmdb_server_error", Message: ce.Error()}
	case ce.StatusCode != 0:
		// 1xx/3xx cannot be relayed as-is.
		return http.StatusBadGateway, ErrorBody{Error: "tmdb_unavailable", Message: ce.Error()}
	}
	return http.StatusServiceUnavailable, ErrorBody{Error: "tmdb_unavailable", Message: ce.Error()}
}

func statusForKind(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
