package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxRateLimitWait  = 5 * time.Minute
)

// ErrRetriesExhausted is wrapped by the error returned once every attempt
// was rate limited or failed transiently.
var ErrRetriesExhausted = errors.New("retries exhausted")

// retryPolicy bounds attempts and the exponential backoff between them.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func (c *Client) retryPolicy() retryPolicy {
	p := retryPolicy{attempts: c.maxRetries, backoff: c.baseBackoff}
	if p.attempts <= 0 {
		p.attempts = defaultMaxRetries
	}
	if p.backoff <= 0 {
		p.backoff = defaultBackoff
	}
	return p
}

// wait returns the pause before the next attempt. A server-provided
// rate-limit wait replaces the exponential step.
func (p retryPolicy) wait(attempt int, serverWait time.Duration) time.Duration {
	if serverWait > 0 {
		return min(serverWait, maxRateLimitWait)
	}
	return p.backoff << (attempt - 1)
}

// doRequestWithRetry sends req until it gets a final answer. Dropbox
// guarantees a 429 was not applied, so rate limits are always retried.
// Server errors and transport failures are retried only for idempotent
// calls: a move may have completed before its response was lost.
func (c *Client) doRequestWithRetry(req *http.Request, idempotent bool) (*http.Response, error) {
	if err := replayable(req); err != nil {
		return nil, err
	}
	policy := c.retryPolicy()
	ctx := req.Context()

	var lastErr error
	for attempt := 1; attempt <= policy.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, errorf("request canceled: %w", err)
		}
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, errorf("reset request body: %w", err)
			}
			req.Body = body
		}

		resp, err := c.httpClient.Do(req)
		serverWait, retry := retryDecision(resp, err, idempotent)
		if !retry {
			return resp, err
		}

		if err != nil {
			lastErr = err
			c.logger.Printf("WARN dropbox adapter: %s attempt %d/%d failed: %v", req.URL.Path, attempt, policy.attempts, err)
		} else {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			c.logger.Printf("WARN dropbox adapter: %s attempt %d/%d got status %d", req.URL.Path, attempt, policy.attempts, resp.StatusCode)
			_ = resp.Body.Close()
		}

		if attempt == policy.attempts {
			break
		}
		if err := sleepWithContext(ctx, policy.wait(attempt, serverWait)); err != nil {
			return nil, err
		}
	}
	return nil, errorf("%s: %w after %d attempts: %w", req.URL.Path, ErrRetriesExhausted, policy.attempts, lastErr)
}

// replayable buffers the request body so every attempt can resend it.
func replayable(req *http.Request) error {
	if req.Body == nil || req.GetBody != nil {
		return nil
	}
	b, err := io.ReadAll(req.Body)
	if err != nil {
		return errorf("read request body: %w", err)
	}
	_ = req.Body.Close()
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return nil
}

// retryDecision reports whether to try again and how long the server asked
// the client to wait.
func retryDecision(resp *http.Response, err error, idempotent bool) (time.Duration, bool) {
	switch {
	case err != nil:
		return 0, idempotent
	case resp == nil:
		return 0, false
	case resp.StatusCode == http.StatusTooManyRequests:
		return rateLimitWait(resp), true
	case resp.StatusCode >= http.StatusInternalServerError:
		return parseRetryAfter(resp), idempotent
	default:
		return 0, false
	}
}

// rateLimitWait prefers the Retry-After header and falls back to the
// retry_after field of a too_many_requests error body.
func rateLimitWait(resp *http.Response) time.Duration {
	if d := parseRetryAfter(resp); d > 0 {
		return d
	}
	var body struct {
		Error struct {
			RetryAfter int `json:"retry_after"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&body); err != nil {
		return 0
	}
	return time.Duration(body.Error.RetryAfter) * time.Second
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
