package github

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

// Default endpoints and limits.
const (
	// DefaultAPIBaseURL is the GitHub REST API root.
	DefaultAPIBaseURL = "https://api.github.com"

	// DefaultHTMLBaseURL is the prefix of the browse URLs returned by code search.
	DefaultHTMLBaseURL = "https://github.com/"

	// DefaultRawBaseURL serves raw file contents.
	DefaultRawBaseURL = "https://raw.githubusercontent.com/"

	// DefaultPerPage is the largest page size code search accepts.
	DefaultPerPage = 100

	// DefaultSearchTimeout bounds a single search request.
	DefaultSearchTimeout = 7500 * time.Millisecond

	// DefaultFetchTimeout bounds a single raw file download.
	DefaultFetchTimeout = 7500 * time.Millisecond

	// DefaultMaxBodySize caps how much of a raw file is read.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent is sent when no other User-Agent is configured.
	DefaultUserAgent = "ghsubfinder (+https://github.com/nao1215/ghsubfinder)"
)

// Client talks to the code search API and the raw content host.
// A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client

	apiBaseURL  string
	htmlBaseURL string
	rawBaseURL  string

	searchTimeout time.Duration
	fetchTimeout  time.Duration

	userAgent   string
	perPage     int
	maxBodySize int64

	// limiter caps the request rate across all goroutines.
	// nil means unlimited.
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAPIBaseURL overrides the search API root. Used by tests.
func WithAPIBaseURL(u string) Option {
	return func(c *Client) {
		c.apiBaseURL = strings.TrimRight(u, "/")
	}
}

// WithRawBaseURL overrides the raw content host. Used by tests.
func WithRawBaseURL(u string) Option {
	return func(c *Client) {
		c.rawBaseURL = strings.TrimRight(u, "/") + "/"
	}
}

// WithSearchTimeout sets the timeout for one search request.
func WithSearchTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.searchTimeout = d
		}
	}
}

// WithFetchTimeout sets the timeout for one raw file download.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithPerPage sets the number of results requested per search page.
func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithMaxBodySize caps the number of bytes read from a raw file.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithRateLimit caps outgoing requests to rps per second across every
// goroutine sharing the client. Zero or negative disables the cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewClient creates a Client with default endpoints and limits.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:    http.DefaultClient,
		apiBaseURL:    DefaultAPIBaseURL,
		htmlBaseURL:   DefaultHTMLBaseURL,
		rawBaseURL:    DefaultRawBaseURL,
		searchTimeout: DefaultSearchTimeout,
		fetchTimeout:  DefaultFetchTimeout,
		userAgent:     DefaultUserAgent,
		perPage:       DefaultPerPage,
		maxBodySize:   DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewHTTPClient creates the HTTP client used for API and raw requests.
// When proxyAddress is non-empty ("host:port"), every connection is dialed
// through that SOCKS5 proxy.
//
// The client has no overall Timeout; search and fetch set their own
// per-request deadlines through the request context.
func NewHTTPClient(proxyAddress string) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if proxyAddress != "" {
		if !isValidProxyAddress(proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// isValidProxyAddress checks that address is "host:port" with a port
// between 1 and 65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// do sends an authorized GET request and returns the response with its body
// fully read (up to limit bytes). The body is closed before do returns.
func (c *Client) do(ctx context.Context, rawURL, token, accept string, limit int64) (*http.Response, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}
