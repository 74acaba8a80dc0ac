package particle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// tokenPath is the password-grant endpoint, relative to the API version.
	tokenPath = "oauth/token"

	// tokenRefreshBuffer is how long before expiry a stored token stops being reused.
	tokenRefreshBuffer = 5 * time.Minute
)

// TokenResponse represents the response from the token endpoint.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsValid checks if the access token is still usable (with buffer).
// A token without an expiry is treated as valid.
func (t *TokenResponse) IsValid() bool {
	return t.validAt(time.Now())
}

func (t *TokenResponse) validAt(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.Add(tokenRefreshBuffer).Before(t.ExpiresAt)
}

// TokenStore is the interface for persisting access tokens between runs.
type TokenStore interface {
	SaveTokens(ctx context.Context, tokens *TokenResponse) error
	LoadTokens(ctx context.Context) (*TokenResponse, error)
}

// GenerateAccessToken exchanges the client's username and password for a new
// access token (password grant, basic-authenticated). The client's own bearer
// token is not changed; use Login for that.
func (c *Client) GenerateAccessToken(ctx context.Context) (*TokenResponse, error) {
	username, password, ok := c.creds.basic()
	if !ok {
		return nil, ErrNoCredentials
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.dispatch(ctx, &Request{
		Method:    http.MethodPost,
		Path:      tokenPath,
		Body:      form,
		BasicAuth: true,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := unmarshalResponse[TokenResponse](resp.body, "token response")
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, &InvalidResponseError{
			StatusCode: resp.status,
			Body:       truncatePreview(resp.body),
			Err:        fmt.Errorf("missing access_token"),
		}
	}
	if tokens.ExpiresAt.IsZero() && tokens.ExpiresIn > 0 {
		tokens.ExpiresAt = c.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}

	return tokens, nil
}

// Login performs the password exchange and installs the resulting token as the
// client's bearer token. With a token store configured the result is saved;
// a failed save is logged and does not fail the login.
func (c *Client) Login(ctx context.Context) (*TokenResponse, error) {
	tokens, err := c.GenerateAccessToken(ctx)
	c.logTokenExchange(ctx, err)
	if err != nil {
		return nil, err
	}

	c.creds.setToken(tokenFromExchange(tokens, c.now()))

	if c.tokenStore != nil {
		if err := c.tokenStore.SaveTokens(ctx, tokens); err != nil {
			c.logTokenStore(ctx, "save", err)
		}
	}

	return tokens, nil
}
