package client

import (
	"context"
	"net/http"
	"time"
)

// RetryPolicy decides whether a request should be retried and the base delay
// before the next attempt. The delay is multiplied by the attempt number.
type RetryPolicy interface {
	ShouldRetry(resp *http.Response, err error) (bool, time.Duration)
}

// RetryPolicyFunc adapts a function to the RetryPolicy interface.
type RetryPolicyFunc func(resp *http.Response, err error) (bool, time.Duration)

// ShouldRetry implements the RetryPolicy interface.
func (f RetryPolicyFunc) ShouldRetry(resp *http.Response, err error) (bool, time.Duration) {
	return f(resp, err)
}

// DefaultRetryPolicy retries transport errors and server errors with a
// linear 500ms backoff. Client errors (4xx) are never retried.
var DefaultRetryPolicy RetryPolicy = RetryPolicyFunc(func(resp *http.Response, err error) (bool, time.Duration) {
	switch {
	case err != nil:
		return true, 500 * time.Millisecond
	case (&APIError{Status: resp.StatusCode}).Temporary():
		return true, 500 * time.Millisecond
	default:
		return false, 0
	}
})

func (c *Client) retry(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error) {
	policy := c.retryPolicy
	if policy == nil {
		return fn()
	}
	for attempt := 1; ; attempt++ {
		resp, err := fn()
		retry, delay := policy.ShouldRetry(resp, err)
		if !retry || attempt >= c.maxAttempts || ctx.Err() != nil {
			return resp, err
		}
		if resp != nil {
			resp.Body.Close()
		}
		wait := delay * time.Duration(attempt)
		c.warnf("csodata: attempt %d/%d failed (%s), retrying in %s", attempt, c.maxAttempts, describeFailure(resp, err), wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func describeFailure(resp *http.Response, err error) string {
	if err != nil {
		return err.Error()
	}
	return resp.Status
}
