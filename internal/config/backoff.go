package config

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry timing for outbound requests. Variables so tests can shorten them.
var (
	baseBackoff   = 1 * time.Second
	maxBackoff    = 30 * time.Second
	backoffFactor = 2.0
	jitterFactor  = 0.5
)

// DoWithBackoff sends req with client, retrying up to maxRetries times when the
// transport fails. HTTP error statuses are returned to the caller untouched;
// only failures to get any response are retried. maxRetries of zero sends
// exactly one request.
func DoWithBackoff(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = baseBackoff
	expo.MaxInterval = maxBackoff
	expo.Multiplier = backoffFactor
	expo.RandomizationFactor = jitterFactor
	expo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(maxRetries)), ctx)

	attempts := 0
	var resp *http.Response
	operation := func() error {
		attempts++
		attempt := req.Clone(ctx)
		if attempts > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(fmt.Errorf("rewinding request body: %w", err))
			}
			attempt.Body = body
		}

		r, err := client.Do(attempt)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request to %s abandoned after %d attempt(s): %w", req.URL.Host, attempts, ctxErr)
		}
		return nil, fmt.Errorf("max retries exceeded after %d attempt(s): %w", attempts, err)
	}
	return resp, nil
}
