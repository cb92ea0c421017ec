package transport

import (
	"github.com/rs/zerolog/log"
	"net/http"
	"time"
)

type loggingTransport struct {
	next http.RoundTripper
}

// Logging wraps next so that every round trip is logged on debug level.
// A nil next falls back to http.DefaultTransport.
func Logging(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next}
}

// RoundTrip implements the http.RoundTripper interface
func (transport *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()
	resp, err := transport.next.RoundTrip(req)
	event := log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Dur("elapsed", time.Since(started))
	if err != nil {
		event.Err(err).Msg("portal request failed")
		return resp, err
	}
	event.Int("status", resp.StatusCode).Msg("portal request")
	return resp, nil
}
