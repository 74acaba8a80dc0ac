package particle

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Logger is an optional interface for structured logging.
// *slog.Logger satisfies it.
type Logger interface {
	// LogAttrs logs a message with the given level and attributes.
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
}

// WithLogger configures a structured logger for the client.
// When set, the client logs requests, responses, token exchanges and streams.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	client, _ := particle.NewClient("token", particle.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// LoggingTransport wraps an http.RoundTripper and logs requests/responses.
// Access tokens are never written: the Authorization header is reduced to its
// scheme and token path segments are masked.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger Logger
}

// RoundTrip implements http.RoundTripper with logging.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	target := redactURL(req)

	if t.Logger != nil {
		t.Logger.LogAttrs(req.Context(), slog.LevelDebug, "http_request",
			slog.String("method", req.Method),
			slog.String("url", target),
			slog.String("auth", authScheme(req.Header.Get("Authorization"))),
		)
	}

	resp, err := base.RoundTrip(req)
	duration := time.Since(start)

	if t.Logger != nil {
		if err != nil {
			t.Logger.LogAttrs(req.Context(), slog.LevelError, "http_error",
				slog.String("method", req.Method),
				slog.String("url", target),
				slog.Duration("duration", duration),
				slog.String("error", err.Error()),
			)
		} else {
			t.Logger.LogAttrs(req.Context(), statusLevel(resp.StatusCode, nil), "http_response",
				slog.String("method", req.Method),
				slog.String("url", target),
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", duration),
			)
		}
	}

	return resp, err
}

// authScheme returns "Bearer", "Basic" or "none" for an Authorization value.
func authScheme(header string) string {
	if header == "" {
		return "none"
	}
	scheme, _, _ := strings.Cut(header, " ")
	return scheme
}

// redactURL renders the request URL with any access token path segment or
// query parameter masked.
func redactURL(req *http.Request) string {
	u := *req.URL
	u.Path = redactPath(u.Path)
	u.RawPath = ""
	if q := u.Query(); q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func redactPath(path string) string {
	const marker = "/access_tokens/"
	i := strings.Index(path, marker)
	if i < 0 {
		return path
	}
	return path[:i+len(marker)] + "REDACTED"
}

func statusLevel(status int, err error) slog.Level {
	switch {
	case err != nil || status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

func (c *Client) logRequest(ctx context.Context, requestID, method, path string) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "api_request",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", redactPath("/"+path)),
	)
}

func (c *Client) logResponse(ctx context.Context, requestID, method, path string, status int, duration time.Duration, err error) {
	if c.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", redactPath("/"+path)),
		slog.Int("status", status),
		slog.Duration("duration", duration),
	}

	msg := "api_response"
	level := statusLevel(status, nil)
	if err != nil {
		msg = "api_error"
		level = slog.LevelWarn
		if kind := KindOf(err); kind == KindRequestFailed || kind == KindRequestTimeout {
			level = slog.LevelError
		}
		attrs = append(attrs,
			slog.String("kind", KindOf(err).String()),
			slog.String("error", err.Error()),
		)
	}

	c.logger.LogAttrs(ctx, level, msg, attrs...)
}

// logLateSignal records an outcome that lost the race for a settled dispatch.
func (c *Client) logLateSignal(ctx context.Context, requestID string, err error) {
	if c.logger == nil {
		return
	}
	attrs := []slog.Attr{slog.String("request_id", requestID)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "dispatch_late_signal", attrs...)
}

func (c *Client) logTokenExchange(ctx context.Context, err error) {
	if c.logger == nil {
		return
	}
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "token_exchange",
			slog.Bool("ok", false),
			slog.String("error", err.Error()),
		)
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "token_exchange", slog.Bool("ok", true))
}

func (c *Client) logTokenStore(ctx context.Context, op string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelWarn, "token_store",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

func (c *Client) logStream(ctx context.Context, msg, path string, err error) {
	if c.logger == nil {
		return
	}
	level := slog.LevelDebug
	attrs := []slog.Attr{slog.String("path", path)}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	c.logger.LogAttrs(ctx, level, msg, attrs...)
}

// NewLoggingClient creates a client whose HTTP transport logs every exchange
// and whose dispatcher logs every API call to logger.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	client, err := particle.NewLoggingClient("token", logger)
func NewLoggingClient(token string, logger Logger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	transport := &LoggingTransport{
		Base: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
		Logger: logger,
	}

	allOpts := append([]Option{WithHTTPClient(&http.Client{Transport: transport}), WithLogger(logger)}, opts...)
	return NewClient(token, allOpts...)
}
