package particle

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// credentials is the per-client credential store. It holds a bearer token,
// a username/password pair, or both (pair plus a token derived from it).
type credentials struct {
	mu       sync.RWMutex
	token    *oauth2.Token
	source   oauth2.TokenSource
	username string
	password string
}

func (c *credentials) setToken(tok *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = tok
}

func (c *credentials) setAccessToken(accessToken string) {
	c.setToken(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

func (c *credentials) setBasic(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username, c.password = username, password
}

func (c *credentials) setSource(ts oauth2.TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = ts
}

// basic returns the username/password pair and whether both are present.
func (c *credentials) basic() (string, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username, c.password, c.username != "" && c.password != ""
}

// bearer returns the access token to send. A missing static token yields an
// empty string; the remote service rejects it with an API error.
func (c *credentials) bearer() (string, error) {
	c.mu.RLock()
	source, tok := c.source, c.token
	c.mu.RUnlock()

	if source != nil {
		t, err := source.Token()
		if err != nil {
			return "", fmt.Errorf("%w: token source: %w", ErrNoCredentials, err)
		}
		return t.AccessToken, nil
	}
	if tok == nil {
		return "", nil
	}
	return tok.AccessToken, nil
}

// current returns a copy of the stored token, or nil.
func (c *credentials) current() *oauth2.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return nil
	}
	t := *c.token
	return &t
}

// Token implements oauth2.TokenSource. A configured source takes precedence
// over the stored bearer token, matching what requests send.
func (c *credentials) Token() (*oauth2.Token, error) {
	c.mu.RLock()
	source := c.source
	c.mu.RUnlock()
	if source != nil {
		tok, err := source.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: token source: %w", ErrNoCredentials, err)
		}
		return tok, nil
	}

	tok := c.current()
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrNoCredentials
	}
	return tok, nil
}

// tokenFromExchange converts a token endpoint response into an oauth2 token.
func tokenFromExchange(resp *TokenResponse, now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	switch {
	case !resp.ExpiresAt.IsZero():
		tok.Expiry = resp.ExpiresAt
	case resp.ExpiresIn > 0:
		tok.Expiry = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return tok
}
