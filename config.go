package particle

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config describes how a client authenticates. Either AccessToken, or both
// Username and Password, must be set. Username and Password are kept for the
// basic-authenticated token endpoints even when AccessToken is given.
type Config struct {
	Username    string
	Password    string
	AccessToken string

	// Timeout is the default per-request timeout. Zero keeps DefaultTimeout.
	// A WithTimeout option takes precedence.
	Timeout time.Duration
}

// Validate checks that the configuration can produce an authenticated client.
func (c Config) Validate() error {
	needPair := c.AccessToken == ""
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.When(needPair || c.Password != "", validation.Required)),
		validation.Field(&c.Password, validation.When(needPair || c.Username != "", validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// NewClientFromConfig creates a client from cfg and makes it ready before
// returning. Without an AccessToken it performs exactly one password
// exchange, unless a token store supplies a still-valid token. Exchange
// failures are returned as classified errors.
func NewClientFromConfig(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	c, err := clientFromConfig(cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := c.authenticate(ctx, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// StartClientFromConfig is the non-blocking form of NewClientFromConfig. The
// client is returned at once; the channel delivers the readiness result (nil
// on success) exactly once and is then closed. Calls made before readiness
// may go out without a token.
func StartClientFromConfig(cfg *Config, opts ...Option) (*Client, <-chan error) {
	ready := make(chan error, 1)

	c, err := clientFromConfig(cfg, opts)
	if err != nil {
		ready <- err
		close(ready)
		if c == nil {
			c = newClient(opts...)
		}
		return c, ready
	}

	go func() {
		defer close(ready)
		ready <- c.authenticate(context.Background(), cfg)
	}()

	return c, ready
}

// clientFromConfig validates cfg and builds an unauthenticated client from it.
func clientFromConfig(cfg *Config, opts []Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("particle: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("particle: invalid config: %w", err)
	}

	c := newClient(opts...)
	if !c.timeout.explicit && cfg.Timeout > 0 {
		c.timeout.value = cfg.Timeout
	}
	if cfg.Username != "" && cfg.Password != "" {
		c.creds.setBasic(cfg.Username, cfg.Password)
	}
	return c, nil
}

// authenticate installs the bearer token: the configured one, a valid stored
// one, or the result of a password exchange.
func (c *Client) authenticate(ctx context.Context, cfg *Config) error {
	if cfg.AccessToken != "" {
		c.creds.setAccessToken(cfg.AccessToken)
		return nil
	}

	if c.tokenStore != nil {
		tokens, err := c.tokenStore.LoadTokens(ctx)
		switch {
		case err == nil && tokens.validAt(c.now()):
			c.creds.setToken(tokenFromExchange(tokens, c.now()))
			return nil
		case err != nil && !errors.Is(err, ErrNoStoredToken):
			c.logTokenStore(ctx, "load", err)
		}
	}

	_, err := c.Login(ctx)
	return err
}
