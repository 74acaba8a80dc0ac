package particle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// response is a successful, normalized API reply.
type response struct {
	status int
	body   []byte
	data   any
}

// Do sends req and returns the decoded JSON payload, or an error classified
// as one of ErrNoCredentials, ErrRequestFailed, ErrRequestTimeout,
// ErrInvalidResponse, ErrAPI or ErrActionFailed.
func (c *Client) Do(ctx context.Context, req *Request) (any, error) {
	resp, err := c.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.data, nil
}

// DoAsync starts req and returns immediately. The Future settles exactly once.
func (c *Client) DoAsync(ctx context.Context, req *Request) *Future {
	return &Future{c: c.start(ctx, req)}
}

// dispatch sends req and waits for its single outcome.
func (c *Client) dispatch(ctx context.Context, req *Request) (*response, error) {
	comp := c.start(ctx, req)
	<-comp.done
	resp, _ := comp.data.(*response)
	return resp, comp.err
}

// start validates and sends req in the background. The returned completion is
// settled by whichever terminal signal comes first: the transport result or
// the per-call timer.
func (c *Client) start(ctx context.Context, req *Request) *completion {
	comp := newCompletion()

	if req == nil {
		comp.resolve(nil, ErrEmptyPath)
		return comp
	}
	if err := req.validate(); err != nil {
		comp.resolve(nil, err)
		return comp
	}

	reqCtx, cancel := context.WithCancelCause(ctx)
	httpReq, err := c.newHTTPRequest(reqCtx, req)
	if err != nil {
		cancel(nil)
		comp.resolve(nil, err)
		return comp
	}

	id := uuid.NewString()
	method, path := httpReq.Method, req.Path

	var timer *time.Timer
	if timeout := req.timeout(c.timeout.value); timeout > 0 {
		timer = time.AfterFunc(timeout, func() {
			err := &RequestError{Timeout: true, Err: fmt.Errorf("%w after %v", errDispatchTimeout, timeout)}
			if c.settle(reqCtx, comp, id, nil, err) {
				c.logResponse(reqCtx, id, method, path, 0, timeout, err)
			}
			cancel(errDispatchTimeout)
		})
	}

	c.logRequest(reqCtx, id, method, path)

	go func() {
		defer cancel(nil)
		if timer != nil {
			defer timer.Stop()
		}

		started := time.Now()
		res := c.roundTrip(httpReq)
		data, err := normalizeResponse(res, c.sentinel)

		var resp *response
		if err == nil {
			resp = &response{status: res.status, body: res.body, data: data}
		}
		if c.settle(reqCtx, comp, id, resp, err) {
			c.logResponse(reqCtx, id, method, path, res.status, time.Since(started), err)
		}
	}()

	return comp
}

// settle resolves comp and logs signals that arrive after the outcome is fixed.
func (c *Client) settle(ctx context.Context, comp *completion, id string, resp *response, err error) bool {
	var data any
	if resp != nil {
		data = resp
	}
	if comp.resolve(data, err) {
		return true
	}
	c.logLateSignal(ctx, id, err)
	return false
}

// newHTTPRequest builds the outbound request: URL, body, headers and auth.
// It fails with ErrNoCredentials before anything is sent when basic auth is
// required but the pair is missing.
func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	method := req.method()
	target := c.endpoint(req.Path)

	var body io.Reader
	if method == http.MethodGet {
		if len(req.Query) > 0 {
			target += "?" + req.Query.Encode()
		}
	} else if form := req.form(); form != nil {
		body = strings.NewReader(form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if req.BasicAuth {
		username, password, ok := c.creds.basic()
		if !ok {
			return nil, ErrNoCredentials
		}
		httpReq.SetBasicAuth(username, password)
	} else {
		token, err := c.creds.bearer()
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	for key, values := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(key)] = values
	}

	return httpReq, nil
}

// roundTrip performs the HTTP exchange and reads the whole body.
func (c *Client) roundTrip(req *http.Request) transportResult {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportResult{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportResult{err: fmt.Errorf("failed to read response body: %w", err), status: resp.StatusCode}
	}

	return transportResult{status: resp.StatusCode, header: resp.Header, body: body}
}
