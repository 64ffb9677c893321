package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig controls when the provider circuit opens and for how long.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker (0 = 3).
	ConsecutiveFailures uint32
	// Cooldown is how long the breaker stays open before a trial request is let through.
	Cooldown time.Duration
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

func newCircuitBreaker(name string, cfg BreakerConfig, onChange func(name string, from, to gobreaker.State)) *gobreaker.CircuitBreaker {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 3
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: onChange,
	})
}

// doRequest executes a single HTTP attempt through the circuit breaker.
// Failed attempts are not retried; the next scheduled cycle is the retry.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			default:
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
