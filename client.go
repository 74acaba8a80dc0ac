package particle

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// Version is the library version reported in the default User-Agent.
	Version = "0.1.0"

	// DefaultBaseURL is the Particle cloud API host.
	DefaultBaseURL = "https://api.particle.io"

	// APIVersion is the path segment placed between the host and every request path.
	APIVersion = "v1"

	// DefaultTimeout is the per-request timeout used when a call does not set one.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the library to the API.
	DefaultUserAgent = "particle-go/" + Version + " (+https://github.com/tj-smith47/particle-go)"
)

// Client is a Particle cloud API client. It owns its credentials; several
// clients with different accounts can coexist in one process.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    timeoutSetting
	httpClient *http.Client
	creds      *credentials
	sentinel   *FailureSentinel
	logger     Logger
	tokenStore TokenStore
	now        func() time.Time
}

// timeoutSetting records the default timeout and whether an option set it,
// so an explicit WithTimeout beats Config.Timeout.
type timeoutSetting struct {
	value    time.Duration
	explicit bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom API host. The version segment is still appended.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
// Its own Timeout should be zero or larger than the per-request timeouts.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the default per-request timeout.
// It takes precedence over Config.Timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeoutSetting{value: timeout, explicit: true}
	}
}

// WithUserAgent replaces the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithFailureSentinel changes the field and value that mark a 200 response as
// a failed action. An empty field disables the check.
func WithFailureSentinel(field string, value float64) Option {
	return func(c *Client) {
		if field == "" {
			c.sentinel = nil
			return
		}
		c.sentinel = &FailureSentinel{Field: field, Value: value}
	}
}

// WithBasicAuth sets the username/password pair used by the token endpoints.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.creds.setBasic(username, password)
	}
}

// WithTokenSource makes the client ask ts for the bearer token on every call.
// Errors from ts are reported as ErrNoCredentials.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.creds.setSource(ts)
	}
}

// WithTokenStore persists tokens obtained by a password exchange and reuses
// a stored unexpired token instead of exchanging again.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.tokenStore = store
	}
}

// newClient builds a client with defaults and applies opts.
func newClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		timeout:   timeoutSetting{value: DefaultTimeout},
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		creds:    &credentials{},
		sentinel: DefaultFailureSentinel(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClient creates a client that authenticates with a literal access token.
// Returns ErrEmptyToken if token is empty.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	c := newClient(opts...)
	c.creds.setAccessToken(token)
	return c, nil
}

// SetToken replaces the client's bearer token.
func (c *Client) SetToken(token string) {
	c.creds.setAccessToken(token)
}

// Token returns a copy of the current bearer token with its expiry, or nil.
func (c *Client) Token() *oauth2.Token {
	return c.creds.current()
}

// TokenSource exposes the client's bearer token as an oauth2.TokenSource.
func (c *Client) TokenSource() oauth2.TokenSource {
	return c.creds
}

// Timeout returns the default per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout.value
}

// endpoint joins the base URL, API version and a relative path.
func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + APIVersion + "/" + strings.TrimLeft(path, "/")
}
