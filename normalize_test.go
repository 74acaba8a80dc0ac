package particle

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeResponse(t *testing.T) {
	sentinel := DefaultFailureSentinel()

	tests := []struct {
		name string
		in   transportResult
		kind ErrorKind
	}{
		{"transport failure", transportResult{err: errors.New("connection refused")}, KindRequestFailed},
		{"deadline", transportResult{err: context.DeadlineExceeded}, KindRequestTimeout},
		{"dispatch timer", transportResult{err: errDispatchTimeout}, KindRequestTimeout},
		{"connection reset", transportResult{err: syscall.ECONNRESET}, KindRequestTimeout},
		{"non-JSON 200", transportResult{status: 200, body: []byte("<html>")}, KindInvalidResponse},
		{"non-JSON 500", transportResult{status: 500, body: []byte("Internal Server Error")}, KindInvalidResponse},
		{"empty body", transportResult{status: 200}, KindInvalidResponse},
		{"error status", transportResult{status: 404, body: []byte(`{"ok":false}`)}, KindAPI},
		{"error field on 200", transportResult{status: 200, body: []byte(`{"error":"nope"}`)}, KindAPI},
		{"sentinel", transportResult{status: 200, body: []byte(`{"id":"a","return_value":-1}`)}, KindActionFailed},
		{"success", transportResult{status: 200, body: []byte(`{"return_value":1}`)}, KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := normalizeResponse(tt.in, sentinel)
			assert.Equal(t, tt.kind, KindOf(err), "err = %v", err)
			if err != nil {
				assert.Nil(t, data)
			}
		})
	}
}

func TestNormalizeResponse_successUnchanged(t *testing.T) {
	body := []byte(`{"id":"abc","connected":true,"variables":{"temp":"double"},"functions":["led"],"n":1.5,"nil":null}`)
	data, err := normalizeResponse(transportResult{status: 200, body: body}, DefaultFailureSentinel())
	require.NoError(t, err)

	want := map[string]any{
		"id":        "abc",
		"connected": true,
		"variables": map[string]any{"temp": "double"},
		"functions": []any{"led"},
		"n":         1.5,
		"nil":       nil,
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeResponse_apiErrorFields(t *testing.T) {
	body := []byte(`{"code":400,"error":"invalid_token","error_description":"The access token provided is invalid."}`)
	_, err := normalizeResponse(transportResult{status: 401, body: body}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "invalid_token", apiErr.ErrorCode)
	assert.Equal(t, "The access token provided is invalid.", apiErr.Description)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "invalid_token")
}

func TestNormalizeResponse_codeAsString(t *testing.T) {
	_, err := normalizeResponse(transportResult{status: 403, body: []byte(`{"code":"403","info":"forbidden"}`)}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Code)
	assert.Equal(t, "forbidden", apiErr.Info)
}

func TestNormalizeResponse_actionFailedCarriesPayload(t *testing.T) {
	_, err := normalizeResponse(transportResult{status: 200, body: []byte(`{"id":"dev","return_value":-1}`)}, DefaultFailureSentinel())

	var failed *ActionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, map[string]any{"id": "dev", "return_value": float64(-1)}, failed.Data)
	assert.Equal(t, "return_value", failed.Field)
}

func TestNormalizeResponse_sentinelConfigurable(t *testing.T) {
	body := []byte(`{"return_value":-1,"result":0}`)

	data, err := normalizeResponse(transportResult{status: 200, body: body}, nil)
	require.NoError(t, err)
	assert.NotNil(t, data)

	_, err = normalizeResponse(transportResult{status: 200, body: body}, &FailureSentinel{Field: "result", Value: 0})
	assert.ErrorIs(t, err, ErrActionFailed)

	// Non-object payloads never match.
	_, err = normalizeResponse(transportResult{status: 200, body: []byte(`-1`)}, DefaultFailureSentinel())
	assert.NoError(t, err)
}

func TestNormalizeResponse_rateLimited(t *testing.T) {
	res := transportResult{
		status: http.StatusTooManyRequests,
		header: http.Header{"Retry-After": {"7"}},
		body:   []byte(`{"error":"rate_limited"}`),
	}
	_, err := normalizeResponse(res, nil)

	assert.True(t, IsRateLimited(err))
	assert.Equal(t, 7*time.Second, RetryAfter(err))
}

func TestNormalizeResponse_orderTransportFirst(t *testing.T) {
	// A transport error wins even when a body is present.
	res := transportResult{err: errors.New("read: broken pipe"), status: 200, body: []byte(`{"ok":true}`)}
	_, err := normalizeResponse(res, nil)
	assert.Equal(t, KindRequestFailed, KindOf(err))
}
