package transport

import (
	"github.com/rs/zerolog/log"
	"io"
	"net/http"
	"time"
)

// retryingTransport re-sends requests that failed on the network level or were answered with a server error
type retryingTransport struct {
	next     http.RoundTripper
	attempts int
	delay    time.Duration
}

// Retrying wraps next so that every request is re-sent up to attempts additional times with a fixed delay in between.
// Retries are opt-in: a non-positive amount of attempts returns next unchanged.
// A nil next falls back to http.DefaultTransport.
func Retrying(next http.RoundTripper, attempts int, delay time.Duration) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if attempts <= 0 {
		return next
	}
	return &retryingTransport{
		next:     next,
		attempts: attempts,
		delay:    delay,
	}
}

// RoundTrip implements the http.RoundTripper interface
func (transport *retryingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	current := req
	for attempt := 0; ; attempt++ {
		resp, err := transport.next.RoundTrip(current)
		if attempt >= transport.attempts || !shouldRetry(resp, err) {
			return resp, err
		}

		// A request body that cannot be rewound cannot be sent again
		if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
			return resp, err
		}

		event := log.Warn().Str("method", req.Method).Str("path", req.URL.Path).Int("attempt", attempt+1)
		if err != nil {
			event = event.Err(err)
		} else {
			event = event.Int("status", resp.StatusCode)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		event.Dur("delay", transport.delay).Msg("portal request failed, retrying")

		timer := time.NewTimer(transport.delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}

		current = req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			current.Body = body
		}
	}
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode >= http.StatusInternalServerError
}
