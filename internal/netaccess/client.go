package netaccess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog/log"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the root of the campus network-access portal
	DefaultBaseURL = "https://netaccess.iitm.ac.in"

	// DefaultTimeout bounds every single portal request
	DefaultTimeout = 30 * time.Second

	// Portal endpoints
	PathRoot    = "/"
	PathLogin   = "/account/login"
	PathApprove = "/account/approve"

	maxBodySize = 1 << 20
)

// browserHeaders is sent with every request; the portal may reject or alter its behaviour for non-browser clients
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Accept-Encoding":           "gzip, deflate",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Response represents the raw outcome of a single portal request
type Response struct {
	Status int
	Body   string
}

// Client automates the portal's login and machine approval forms.
// A client owns exactly one HTTP session (cookie jar); it must only be driven by one workflow at a time.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	approvePolicy MatchPolicy
}

type options struct {
	timeout       time.Duration
	transport     http.RoundTripper
	approvePolicy MatchPolicy
}

// Option configures a Client
type Option func(*options)

// WithTimeout sets the timeout of every single request.
// A non-positive value disables the timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

// WithTransport sets the round tripper the client's requests are sent through
func WithTransport(transport http.RoundTripper) Option {
	return func(opts *options) {
		opts.transport = transport
	}
}

// WithApprovePolicy sets the policy used to judge approval responses without a confirmation keyword
func WithApprovePolicy(policy MatchPolicy) Option {
	return func(opts *options) {
		opts.approvePolicy = policy
	}
}

// New creates a new portal client with a fresh session.
// An empty base URL falls back to DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	settings := &options{
		timeout:       DefaultTimeout,
		approvePolicy: OptimisticDefault,
	}
	for _, opt := range opts {
		opt(settings)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{
		Jar:       jar,
		Transport: settings.transport,
	}
	if settings.timeout > 0 {
		httpClient.Timeout = settings.timeout
	}

	return &Client{
		baseURL:       parsed,
		http:          httpClient,
		approvePolicy: settings.approvePolicy,
	}, nil
}

// BaseURL returns the portal root the client talks to
func (client *Client) BaseURL() string {
	return client.baseURL.String()
}

// Cookies returns the session cookies the client currently sends to the portal root
func (client *Client) Cookies() []*http.Cookie {
	return client.http.Jar.Cookies(client.resolve(PathRoot))
}

// Login establishes a session and submits the login form.
// It returns true only if the portal answered with HTTP 200 and the body mentions "logout" or "authorized machines".
func (client *Client) Login(ctx context.Context, username, password string) bool {
	if err := client.login(ctx, username, password); err != nil {
		log.Error().Err(err).Str("username", username).Msg("login failed")
		return false
	}
	log.Info().Str("username", username).Msg("login successful")
	return true
}

// ApproveMachine submits the approval form for the given window.
// Without a confirmation keyword in the response the result depends on the client's approval policy.
func (client *Client) ApproveMachine(ctx context.Context, duration Duration) bool {
	confidence, err := client.approve(ctx, duration)
	if err != nil {
		log.Error().Err(err).Stringer("duration", duration).Msg("machine approval failed")
		return false
	}
	if confidence == ConfidenceWeak {
		log.Warn().Stringer("duration", duration).Msg("machine approval submitted, but the portal did not confirm it explicitly")
		return true
	}
	log.Info().Stringer("duration", duration).Msg("machine approval successful")
	return true
}

// GetAuthorizedMachines fetches the raw landing page listing the authorized machines.
// The page is not parsed; see ParseMachines.
func (client *Client) GetAuthorizedMachines(ctx context.Context) (string, bool) {
	resp, err := client.expect(ctx, http.MethodGet, PathRoot, nil)
	if err != nil {
		log.Error().Err(err).Msg("could not fetch the authorized machines")
		return "", false
	}
	return resp.Body, true
}

func (client *Client) login(ctx context.Context, username, password string) error {
	if _, err := client.expect(ctx, http.MethodGet, PathRoot, nil); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("userLogin", username)
	form.Set("userPassword", password)
	form.Set("submit", "Log in")
	resp, err := client.expect(ctx, http.MethodPost, PathLogin, form)
	if err != nil {
		return err
	}

	if judge(resp.Body, loginKeywords, StrictMatch) == ConfidenceNone {
		return ErrAmbiguousContent
	}
	return nil
}

func (client *Client) approve(ctx context.Context, duration Duration) (Confidence, error) {
	page, err := client.expect(ctx, http.MethodGet, PathApprove, nil)
	if err != nil {
		return ConfidenceNone, err
	}

	form := hiddenFields(page.Body, "ip", "username", "building")
	form.Set("duration", strconv.Itoa(int(duration)))
	form.Set("approveBtn", "Authorize")
	resp, err := client.expect(ctx, http.MethodPost, PathApprove, form)
	if err != nil {
		return ConfidenceNone, err
	}

	confidence := judge(resp.Body, approveKeywords, client.approvePolicy)
	if confidence == ConfidenceNone {
		return ConfidenceNone, ErrAmbiguousContent
	}
	return confidence, nil
}

// expect performs a request and fails on every status other than HTTP 200
func (client *Client) expect(ctx context.Context, method, path string, form url.Values) (*Response, error) {
	resp, err := client.do(ctx, method, path, form)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return resp, &StatusError{Method: method, Path: path, Status: resp.Status}
	}
	return resp, nil
}

// do sends a single request through the client's session.
// Every portal request goes through this method.
func (client *Client) do(ctx context.Context, method, path string, form url.Values) (*Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, client.resolve(path).String(), body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Wrapping: err}
	}
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := client.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Wrapping: err}
	}
	defer resp.Body.Close()

	text, err := readBody(resp)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Wrapping: err}
	}
	return &Response{Status: resp.StatusCode, Body: text}, nil
}

func (client *Client) resolve(path string) *url.URL {
	return client.baseURL.ResolveReference(&url.URL{Path: path})
}

// readBody reads and decodes a response body.
// Go does not decompress transparently once Accept-Encoding is set by hand.
func readBody(resp *http.Response) (string, error) {
	raw, err := readLimited(resp.Body)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return "", fmt.Errorf("decode gzip body: %w", err)
		}
		defer reader.Close()
		decoded, err := readLimited(reader)
		if err != nil {
			return "", fmt.Errorf("decode gzip body: %w", err)
		}
		return string(decoded), nil
	case "deflate":
		decoded, err := inflate(raw)
		if err != nil {
			return "", fmt.Errorf("decode deflate body: %w", err)
		}
		return string(decoded), nil
	default:
		return string(raw), nil
	}
}

// readLimited reads a whole stream and fails if it exceeds maxBodySize; a partial body is never returned
func readLimited(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBodySize {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// inflate decodes zlib-wrapped deflate data and falls back to raw deflate streams some servers send instead
func inflate(raw []byte) ([]byte, error) {
	if reader, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
		defer reader.Close()
		decoded, err := readLimited(reader)
		if err == nil || errors.Is(err, ErrBodyTooLarge) {
			return decoded, err
		}
	}
	reader := flate.NewReader(bytes.NewReader(raw))
	defer reader.Close()
	return readLimited(reader)
}
