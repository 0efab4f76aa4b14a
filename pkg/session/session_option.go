package session

import (
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
)

type Option func(*Client)

// WithHTTPClient sets the underlying http.Client. Its Jar is kept if set,
// its CheckRedirect is always replaced.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets the per-request timeout, including reading the body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithLogger(logger log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}
