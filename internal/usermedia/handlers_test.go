package usermedia

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidduclam/movietracker/internal/httputil"
	"github.com/davidduclam/movietracker/internal/models"
)

func newRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	NewHandler(f.svc).Register(r)
	return r
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorBody {
	t.Helper()
	var body httputil.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAddMovieScenario(t *testing.T) {
	f := newFixture(1)
	h := newRouter(f)

	rec := send(h, http.MethodPost, "/users/1/media", `{"tmdbId": 550, "mediaType": "MOVIE"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var link models.UserMedia
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &link))
	assert.Equal(t, int64(550), link.TmdbID)
	assert.Equal(t, models.MediaTypeMovie, link.MediaType)
	assert.False(t, link.Watched)
	assert.Contains(t, rec.Body.String(), `"mediaType":"movie"`)

	movie, ok := f.uow.movies.Rows[550]
	require.True(t, ok)
	assert.Equal(t, int64(550), movie.TmdbID)

	rec = send(h, http.MethodPost, "/users/1/media", `{"tmdbId": 550, "mediaType": "MOVIE"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "MEDIA_ALREADY_EXISTS", errorBody(t, rec).Error)
}

func TestAddMediaRequestErrors(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		body    string
		status  int
		code    string
		message string
	}{
		{"malformed json", "/users/1/media", `{"tmdbId": 550,`, 400, "INVALID_REQUEST_BODY", "Malformed JSON or invalid field value in request body"},
		{"unknown media type", "/users/1/media", `{"tmdbId": 550, "mediaType": "BOOK"}`, 400, "INVALID_REQUEST_BODY", ""},
		{"string tmdb id", "/users/1/media", `{"tmdbId": "550", "mediaType": "TV"}`, 400, "INVALID_REQUEST_BODY", ""},
		{"missing tmdb id", "/users/1/media", `{"mediaType": "TV"}`, 400, "VALIDATION_ERROR", "tmdbId: tmdbId is required"},
		{"missing media type", "/users/1/media", `{"tmdbId": 550}`, 400, "VALIDATION_ERROR", "mediaType: mediaType is required"},
		{"both missing", "/users/1/media", `{}`, 400, "VALIDATION_ERROR", "tmdbId: tmdbId is required"},
		{"unknown user", "/users/9/media", `{"tmdbId": 550, "mediaType": "movie"}`, 404, "USER_NOT_FOUND", ""},
		{"bad user id", "/users/x/media", `{"tmdbId": 550, "mediaType": "movie"}`, 400, "VALIDATION_ERROR", ""},
		{"unknown tmdb id", "/users/1/media", `{"tmdbId": 31337, "mediaType": "movie"}`, 404, "tmdb_client_error", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(1)
			rec := send(newRouter(f), http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code)
			body := errorBody(t, rec)
			assert.Equal(t, tc.code, body.Error)
			if tc.message != "" {
				assert.Equal(t, tc.message, body.Message)
			}
			assert.Empty(t, f.uow.links.rows)
		})
	}
}

func TestManageLinksOverHTTP(t *testing.T) {
	f := newFixture(1)
	h := newRouter(f)

	rec := send(h, http.MethodPost, "/users/1/media", `{"tmdbId": 1399, "mediaType": "tv"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var link models.UserMedia
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &link))

	rec = send(h, http.MethodGet, "/users/1/media", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.UserMedia
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)

	path := "/users/1/media/" + jsonInt(link.ID)
	rec = send(h, http.MethodPatch, path, `{"watched": true, "watchDate": "2024-01-31"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"watchDate":"2024-01-31"`)
	assert.Contains(t, rec.Body.String(), `"watched":true`)

	rec = send(h, http.MethodPatch, path, `{"watchDate": "31/01/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST_BODY", errorBody(t, rec).Error)

	rec = send(h, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = send(h, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_MEDIA_NOT_FOUND", errorBody(t, rec).Error)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
