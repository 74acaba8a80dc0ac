package particle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"syscall"
)

// FailureSentinel marks an otherwise successful payload as a failed action:
// when the top-level object has Field equal to Value the call is classified
// as ErrActionFailed.
type FailureSentinel struct {
	Field string
	Value float64
}

// DefaultFailureSentinel is the return_value marker reported by device functions.
func DefaultFailureSentinel() *FailureSentinel {
	return &FailureSentinel{Field: "return_value", Value: -1}
}

func (s *FailureSentinel) matches(data any) bool {
	if s == nil || s.Field == "" {
		return false
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return false
	}
	v, ok := obj[s.Field].(float64)
	return ok && v == s.Value
}

// transportResult is the raw outcome handed over by the transport.
type transportResult struct {
	err    error
	status int
	header http.Header
	body   []byte
}

// errDispatchTimeout is the abort cause recorded when the per-call timer fires.
var errDispatchTimeout = errors.New("dispatch deadline exceeded")

// normalizeResponse classifies one transport outcome. The order is fixed:
// transport failure, then body decoding, then status/error field, then sentinel.
func normalizeResponse(res transportResult, sentinel *FailureSentinel) (any, error) {
	if res.err != nil {
		return nil, &RequestError{Timeout: isTimeoutSignal(res.err), Err: res.err}
	}

	var data any
	if err := json.Unmarshal(res.body, &data); err != nil {
		return nil, &InvalidResponseError{
			StatusCode: res.status,
			Body:       truncatePreview(res.body),
			Err:        err,
		}
	}

	if apiErr := apiErrorFrom(res.status, data); apiErr != nil {
		if res.status == http.StatusTooManyRequests {
			apiErr.RetryAfter = parseRetryAfter(res.header.Get("Retry-After"))
		}
		return nil, apiErr
	}

	if sentinel.matches(data) {
		return nil, &ActionFailedError{Field: sentinel.Field, Value: sentinel.Value, Data: data}
	}

	return data, nil
}

// apiErrorFrom returns an APIError when the status is not 200 or the body
// carries an error field, nil otherwise.
func apiErrorFrom(status int, data any) *APIError {
	obj, _ := data.(map[string]any)

	errField := ""
	if obj != nil {
		switch v := obj["error"].(type) {
		case nil:
		case string:
			errField = v
		case bool:
			if v {
				errField = "true"
			}
		default:
			errField = fmt.Sprint(v)
		}
	}

	if status == http.StatusOK && errField == "" {
		return nil
	}

	apiErr := &APIError{StatusCode: status, ErrorCode: errField}
	if obj != nil {
		apiErr.Code = codeOf(obj["code"])
		apiErr.Description, _ = obj["error_description"].(string)
		apiErr.Info, _ = obj["info"].(string)
	}
	return apiErr
}

// codeOf converts the provider code field to an int.
func codeOf(v any) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case string:
		n, err := strconv.Atoi(c)
		if err == nil {
			return n
		}
	}
	return 0
}

// isTimeoutSignal reports whether a transport error is a timeout or an abort.
// Connection resets are grouped with timeouts: they are what an aborted
// in-flight request looks like from the socket side.
func isTimeoutSignal(err error) bool {
	if errors.Is(err, errDispatchTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
