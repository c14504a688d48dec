package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultSourceTimeout = 10 * time.Second
	maxSourceBytes       = 4 << 20
)

// ErrFetchFailed is returned when the upstream user collection cannot be
// retrieved. Transport errors and non-2xx answers are not told apart.
var ErrFetchFailed = errors.New("failed to fetch users")

// RawUser is a user object as served by the upstream collection.
type RawUser struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Company  struct {
		Name string `json:"name"`
	} `json:"company"`
	Address struct {
		Street string `json:"street"`
		City   string `json:"city"`
	} `json:"address"`
}

// Source yields the raw user collection.
type Source interface {
	Fetch(ctx context.Context) ([]RawUser, error)
}

// HTTPSource fetches the collection with a single GET request.
type HTTPSource struct {
	client *http.Client
	url    string
}

// NewHTTPSource constructs a source for the given collection URL.
func NewHTTPSource(url string, timeout time.Duration) (*HTTPSource, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("directory source url is required")
	}
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &HTTPSource{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}, nil
}

// URL returns the collection endpoint.
func (s *HTTPSource) URL() string {
	return s.url
}

// Fetch performs one GET; there is no retry.
func (s *HTTPSource) Fetch(ctx context.Context) ([]RawUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxSourceBytes))
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	var users []RawUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSourceBytes)).Decode(&users); err != nil {
		return nil, fmt.Errorf("%w: invalid payload: %v", ErrFetchFailed, err)
	}
	return users, nil
}
