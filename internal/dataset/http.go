package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxDocumentBytes   = 1 << 20
)

// HTTPSource fetches the dataset document from a URL. Each Load is one GET
// with no retry; a circuit breaker short-circuits repeated failures so a dead
// endpoint fails fast into the retrieval-error fallback. Loads abandoned by
// the caller's context are not counted against the endpoint.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewHTTPSource creates a remote source. A zero timeout uses 10s.
func NewHTTPSource(url string, timeout time.Duration, logger *logrus.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	s := &HTTPSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CategoryDataset",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			var abandoned *abandonedError
			return err == nil || errors.As(err, &abandoned)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return s
}

// Load performs one retrieval through the circuit breaker.
func (s *HTTPSource) Load(ctx context.Context) (*domain.CategoryDataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		ds, err := s.fetch(ctx)
		if err != nil && ctx.Err() != nil {
			return nil, &abandonedError{err: err}
		}
		return ds, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
		}
		return nil, err
	}

	return result.(*domain.CategoryDataset), nil
}

// abandonedError marks a fetch that failed because the caller's context
// ended, not because the endpoint misbehaved.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return e.err.Error() }

func (e *abandonedError) Unwrap() error { return e.err }

func (s *HTTPSource) fetch(ctx context.Context) (*domain.CategoryDataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrRetrieval, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrRetrieval, s.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrRetrieval, err)
	}

	format := FormatFromPath(req.URL.Path)
	if ct := resp.Header.Get("Content-Type"); ct == "application/yaml" || ct == "application/x-yaml" {
		format = FormatYAML
	}

	s.logger.WithFields(logrus.Fields{
		"url":    s.url,
		"bytes":  len(body),
		"format": format,
	}).Debug("Fetched category dataset")

	return Decode(body, format)
}

// Name implements domain.CategorySource.
func (s *HTTPSource) Name() string {
	return "http:" + s.url
}
