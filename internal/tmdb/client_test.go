package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("secret", zerolog.Nop(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestFetchMovieDetailsSendsBearerAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"id":550,"title":"Fight Club","release_date":"1999-10-15","poster_path":"/p.jpg","backdrop_path":"/b.jpg","overview":"Rules.","vote_average":8.4,"runtime":139}`))
	})

	d, err := c.FetchMovieDetails(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, int64(550), d.ID)
	assert.Equal(t, "Fight Club", d.Title)
	assert.Equal(t, "1999-10-15", d.ReleaseDate)
	assert.Equal(t, 139, d.Runtime)
}

func TestUpstream404CarriesStatusAndSnippet(t *testing.T) {
	long := `{"status_message":"` + strings.Repeat("x", 500) + `"}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(long))
	})

	_, err := c.FetchMovieDetails(context.Background(), 1)
	require.Error(t, err)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Upstream())
	assert.Equal(t, http.StatusNotFound, ce.StatusCode)
	assert.LessOrEqual(t, len([]rune(ce.Body)), 200)
	assert.True(t, strings.HasPrefix(long, ce.Body))
	assert.Equal(t, "TMDB movie details failed with status 404", ce.Error())
}

func TestEmptyDetailBodies(t *testing.T) {
	for _, body := range []string{"", "null", "  \n", "{}"} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		d, err := c.FetchTvShowDetails(context.Background(), 1399)
		assert.Nil(t, d, "body %q", body)
		require.Error(t, err, "body %q", body)
		assert.ErrorIs(t, err, ErrEmptyResponse, "body %q", body)

		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.False(t, ce.Upstream())
	}
}

func TestTransportFailureHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient("secret", zerolog.Nop(), WithBaseURL(url))
	_, err := c.PopularMovies(context.Background())

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, ce.StatusCode)
	assert.NotNil(t, ce.Err)
	assert.NotErrorIs(t, err, ErrEmptyResponse)
}

func TestMalformedJSONIsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	})
	_, err := c.TopRatedMovies(context.Background())

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.False(t, ce.Upstream())
}

func TestSearchMoviesSendsQueryAndLanguage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "fight club", r.URL.Query().Get("query"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		json.NewEncoder(w).Encode(Page[MovieSummary]{
			Page:         1,
			Results:      []MovieSummary{{ID: 550, Title: "Fight Club"}},
			TotalPages:   1,
			TotalResults: 1,
		})
	})

	got, err := c.SearchMovies(context.Background(), "fight club")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fight Club", got[0].Title)
}

func TestListWithoutResultsIsEmptySlice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/top_rated", r.URL.Path)
		w.Write([]byte(`{"page":1,"total_pages":0,"total_results":0}`))
	})

	got, err := c.TopRatedTvShows(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchMultiDiscriminatesMediaType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/multi", r.URL.Path)
		w.Write([]byte(`{"page":1,"total_pages":1,"total_results":3,"results":[
			{"id":550,"media_type":"movie","title":"Fight Club","release_date":"1999-10-15"},
			{"id":1399,"media_type":"tv","name":"Game of Thrones","first_air_date":"2011-04-17"},
			{"id":287,"media_type":"person","name":"Brad Pitt","known_for":[]}
		]}`))
	})

	got, err := c.SearchMulti(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.NotNil(t, got[0].Movie)
	assert.Equal(t, "Fight Club", got[0].Movie.Title)
	assert.Nil(t, got[0].TvShow)

	require.NotNil(t, got[1].TvShow)
	assert.Equal(t, "Game of Thrones", got[1].TvShow.Name)

	assert.True(t, got[2].Ignored())
	assert.Equal(t, "person", got[2].MediaType)
	assert.Equal(t, int64(287), got[2].ID)
}

func TestSearchResultMarshalKeepsTag(t *testing.T) {
	out, err := json.Marshal(SearchResult{ID: 1399, MediaType: MediaTypeTV, TvShow: &TvShowSummary{ID: 1399, Name: "Game of Thrones"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"media_type":"tv"`)
	assert.Contains(t, string(out), `"name":"Game of Thrones"`)

	out, err = json.Marshal(SearchResult{ID: 9, MediaType: "person"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9,"media_type":"person"}`, string(out))
}

func TestCanceledContextFailsBeforeRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	c.limiter = nil
	WithRateLimit(1, 1)(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.UpcomingMovies(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}

func TestTruncateIsRuneSafe(t *testing.T) {
	s := strings.Repeat("é", 250)
	got := truncate(s, 200)
	assert.Equal(t, 200, len([]rune(got)))
	assert.Equal(t, "short", truncate("short", 200))
}
