// Package session holds an HTTP session bound to a single origin. Cookies
// set by the origin are kept in a jar and only ever sent back to that
// origin.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/net/publicsuffix"
)

const (
	LoginPath        = "/login"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "pulse"
)

var (
	// ErrCrossOrigin is returned when a path resolves outside the session's origin.
	ErrCrossOrigin = errors.New("target is not same-origin")

	// ErrInvalidCredentials is returned when login leaves us on the login page.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Client is a same-origin HTTP session.
type Client struct {
	logger    log.Logger
	origin    *url.URL
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

func New(origin string, opts ...Option) (*Client, error) {
	originURL, err := parseOrigin(origin)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		logger:    log.NewNopLogger(),
		origin:    originURL,
		client:    &http.Client{},
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Jar and redirect policy apply to any supplied http.Client too.
	hc := *c.client
	if hc.Jar == nil {
		hc.Jar = jar
	}
	hc.CheckRedirect = c.checkRedirect
	if hc.Timeout == 0 {
		hc.Timeout = c.timeout
	}
	c.client = &hc

	c.logger = log.With(c.logger, "component", "session", "origin", c.origin.String())

	return c, nil
}

func parseOrigin(origin string) (*url.URL, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parsing origin %q: %w", origin, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("origin %q must be an http or https URL", origin)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("origin %q has no host", origin)
	}

	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// Origin returns a copy of the session origin.
func (c *Client) Origin() *url.URL {
	u := *c.origin
	return &u
}

// Resolve resolves path against the origin and rejects any result that
// belongs to a different origin.
func (c *Client) Resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, err)
	}

	u := c.origin.ResolveReference(ref)
	if !c.sameOrigin(u) {
		return nil, fmt.Errorf("resolving %q: %w", path, ErrCrossOrigin)
	}

	return u, nil
}

// sameOrigin compares scheme, host and port, treating an omitted port as
// the scheme's default.
func (c *Client) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.origin.Scheme) &&
		strings.EqualFold(u.Hostname(), c.origin.Hostname()) &&
		effectivePort(u) == effectivePort(c.origin)
}

func effectivePort(u *url.URL) string {
	if port := u.Port(); port != "" {
		return port
	}

	switch strings.ToLower(u.Scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	}

	return ""
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}

	if !c.sameOrigin(req.URL) {
		return fmt.Errorf("redirect to %s: %w", req.URL.Redacted(), ErrCrossOrigin)
	}

	return nil
}

// Post issues an empty-bodied POST to path, carrying the session cookies.
// The response body is discarded.
func (c *Client) Post(ctx context.Context, path string) error {
	response, err := c.do(ctx, http.MethodPost, path, nil, "")
	if err != nil {
		return err
	}
	defer response.Body.Close()

	return discard(response)
}

// Get issues a GET to path and returns the final status code.
func (c *Client) Get(ctx context.Context, path string) (int, error) {
	response, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()

	return response.StatusCode, discard(response)
}

// Login submits the login form. On success the session cookies are held in
// the jar for later requests.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	response, err := c.do(ctx, http.MethodPost, LoginPath, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return fmt.Errorf("submitting login form: %w", err)
	}
	defer response.Body.Close()

	if err := discard(response); err != nil {
		return fmt.Errorf("logging in as %s: %w", email, err)
	}

	// A failed login re-renders (or redirects back to) the login form.
	if response.Request != nil && response.Request.URL.Path == LoginPath && response.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logging in as %s: %w", email, ErrInvalidCredentials)
	}

	level.Debug(c.logger).Log(
		"msg", "logged in",
		"landing_path", response.Request.URL.Path,
	)

	return nil
}

func (c *Client) do(ctx context.Context, verb, path string, body io.Reader, contentType string) (*http.Response, error) {
	target, err := c.Resolve(path)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, verb, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request object: %w", err)
	}

	request.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	return c.client.Do(request)
}

// discard drains the body and turns a 4xx/5xx status into an error.
func discard(response *http.Response) error {
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode >= 400 {
		return fmt.Errorf("received http status code %d", response.StatusCode)
	}

	return nil
}
