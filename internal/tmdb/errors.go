package tmdb

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrEmptyResponse is returned, wrapped in a *ClientError, when TMDB
// answers 2xx with no usable payload.
var ErrEmptyResponse = errors.New("empty response")

const maxBodySnippet = 200

// ClientError is returned by every Client method on failure. StatusCode
// is zero when no upstream response was received or the response was empty.
type ClientError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ClientError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("TMDB %s failed with status %d", e.Op, e.StatusCode)
	case errors.Is(e.Err, ErrEmptyResponse):
		return fmt.Sprintf("TMDB returned an empty response for %s", e.Op)
	case e.Err != nil:
		return fmt.Sprintf("TMDB %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("TMDB %s failed", e.Op)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Upstream reports whether TMDB answered with a non-success status.
func (e *ClientError) Upstream() bool {
	return e.StatusCode != 0
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
