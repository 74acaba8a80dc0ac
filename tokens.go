package particle

import (
	"context"
	"net/http"
	"net/url"
)

// ListAccessTokens returns the account's access tokens. It authenticates with
// the username/password pair, so the client must carry one.
func (c *Client) ListAccessTokens(ctx context.Context) ([]AccessToken, error) {
	resp, err := c.dispatch(ctx, &Request{
		Path:      "access_tokens",
		BasicAuth: true,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := unmarshalResponse[[]AccessToken](resp.body, "access token list")
	if err != nil {
		return nil, err
	}
	return *tokens, nil
}

// DeleteAccessToken revokes token. It authenticates with the username/password pair.
func (c *Client) DeleteAccessToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyAccessToken
	}

	_, err := c.dispatch(ctx, &Request{
		Method:    http.MethodDelete,
		Path:      "access_tokens/" + url.PathEscape(token),
		BasicAuth: true,
	})
	return err
}
