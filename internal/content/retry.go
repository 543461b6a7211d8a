package content

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Retrier re-issues a failed call a bounded number of times with a fixed pause.
type Retrier struct {
	Retries int
	Pause   time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
}

// DefaultRetrier retries three times, one second apart.
func DefaultRetrier() Retrier {
	return Retrier{Retries: 3, Pause: time.Second, Sleep: sleepContext}
}

// WithRetry runs fn, retrying only rate-limit and unavailable failures.
// Any other error is returned immediately without pausing.
func WithRetry[T any](ctx context.Context, r Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= r.Retries || !Retryable(err) {
			return v, err
		}
		if serr := sleep(ctx, r.Pause); serr != nil {
			return v, err
		}
	}
}

// Retryable reports whether err is a rate-limit or service-unavailable failure,
// whether it arrived as an HTTP googleapi error or a gRPC status.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code == http.StatusServiceUnavailable
	}
	switch status.Code(err) {
	case codes.ResourceExhausted, codes.Unavailable:
		return true
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
