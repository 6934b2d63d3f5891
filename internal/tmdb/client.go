package tmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	defaultLanguage = "en-US"
	maxResponseSize = 4 << 20
)

// Client talks to the TMDB v3 API with a bearer token.
type Client struct {
	baseURL  string
	token    string
	language string
	http     *http.Client
	limiter  *rate.Limiter
	log      zerolog.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func NewClient(token string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		token:    token,
		language: defaultLanguage,
		http:     &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Inf, 1),
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ──────────────────── Movies ────────────────────

func (c *Client) SearchMovies(ctx context.Context, query string) ([]MovieSummary, error) {
	return list[MovieSummary](ctx, c, "movie search", "/search/movie", c.searchParams(query))
}

func (c *Client) FetchMovieDetails(ctx context.Context, id int64) (*MovieDetail, error) {
	const op = "movie details"
	var d MovieDetail
	if err := c.get(ctx, op, "/movie/"+strconv.FormatInt(id, 10), nil, &d); err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, &ClientError{Op: op, Err: ErrEmptyResponse}
	}
	return &d, nil
}

func (c *Client) PopularMovies(ctx context.Context) ([]MovieSummary, error) {
	return list[MovieSummary](ctx, c, "popular movies", "/movie/popular", nil)
}

func (c *Client) TopRatedMovies(ctx context.Context) ([]MovieSummary, error) {
	return list[MovieSummary](ctx, c, "top rated movies", "/movie/top_rated", nil)
}

func (c *Client) UpcomingMovies(ctx context.Context) ([]MovieSummary, error) {
	return list[MovieSummary](ctx, c, "upcoming movies", "/movie/upcoming", nil)
}

// ──────────────────── TV ────────────────────

func (c *Client) SearchTvShows(ctx context.Context, query string) ([]TvShowSummary, error) {
	return list[TvShowSummary](ctx, c, "tv search", "/search/tv", c.searchParams(query))
}

func (c *Client) FetchTvShowDetails(ctx context.Context, id int64) (*TvShowDetail, error) {
	const op = "tv details"
	var d TvShowDetail
	if err := c.get(ctx, op, "/tv/"+strconv.FormatInt(id, 10), nil, &d); err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, &ClientError{Op: op, Err: ErrEmptyResponse}
	}
	return &d, nil
}

func (c *Client) PopularTvShows(ctx context.Context) ([]TvShowSummary, error) {
	return list[TvShowSummary](ctx, c, "popular tv shows", "/tv/popular", nil)
}

func (c *Client) TopRatedTvShows(ctx context.Context) ([]TvShowSummary, error) {
	return list[TvShowSummary](ctx, c, "top rated tv shows", "/tv/top_rated", nil)
}

// ──────────────────── Multi ────────────────────

func (c *Client) SearchMulti(ctx context.Context, query string) ([]SearchResult, error) {
	return list[SearchResult](ctx, c, "multi search", "/search/multi", c.searchParams(query))
}

// ──────────────────── Transport ────────────────────

func (c *Client) searchParams(query string) url.Values {
	q := url.Values{}
	q.Set("query", query)
	q.Set("language", c.language)
	return q
}

func list[T any](ctx context.Context, c *Client, op, path string, query url.Values) ([]T, error) {
	var page Page[T]
	if err := c.get(ctx, op, path, query, &page); err != nil {
		return nil, err
	}
	c.log.Debug().Str("op", op).Int("page", page.Page).Int("totalResults", page.TotalResults).Msg("tmdb list fetched")
	if page.Results == nil {
		return []T{}, nil
	}
	return page.Results, nil
}

// get performs a GET and decodes the JSON body into dst. Every failure is
// returned as a *ClientError.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &ClientError{Op: op, Err: err}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &ClientError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Str("path", path).Msg("tmdb request failed")
		return &ClientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &ClientError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := truncate(string(body), maxBodySnippet)
		c.log.Warn().Str("op", op).Str("path", path).Int("status", resp.StatusCode).Str("body", snippet).Msg("tmdb returned error status")
		return &ClientError{Op: op, StatusCode: resp.StatusCode, Body: snippet}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		c.log.Warn().Str("op", op).Str("path", path).Msg("tmdb returned empty body")
		return &ClientError{Op: op, Err: ErrEmptyResponse}
	}

	if err := json.Unmarshal(trimmed, dst); err != nil {
		return &ClientError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.log.Debug().Str("op", op).Str("path", path).Dur("took", time.Since(start)).Msg("tmdb request ok")
	return nil
}
