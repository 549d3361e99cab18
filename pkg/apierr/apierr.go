// Package apierr classifies the error codes BingX embeds in response bodies.
//
// The exchange reports failures as {"code": <int>, "msg": <string>,
// "timestamp": <int>} in both 200 and non-200 responses, so classification
// looks only at the decoded payload, never at the HTTP status.
package apierr

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"bingx/pkg/errors"
)

const (
	codeField      = "code"
	messageField   = "msg"
	timestampField = "timestamp"

	defaultMessage = "No error message provided"
)

// Error is a classified exchange failure.
type Error struct {
	Code      int64
	Message   string
	Timestamp *int64
	Kind      Kind
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("API Error %d: %s", e.Code, e.Message)
	if e.Timestamp != nil {
		msg += fmt.Sprintf(" (Timestamp: %d)", *e.Timestamp)
	}
	return msg
}

// Unwrap exposes the shared error category, so errors.Is(err,
// errors.ErrRateLimitExceeded) works on a classified rate-limit failure.
func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}

// Is matches another *Error of the same kind. A target with a non-zero code
// must also match the code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != 0 && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

// Classify inspects a decoded payload. It returns nil when the payload has no
// code field or the code is 0, and an *Error otherwise.
func Classify(payload map[string]any) error {
	raw, ok := payload[codeField]
	if !ok || raw == nil {
		return nil
	}

	code, ok := toInt64(raw)
	if !ok {
		return &Error{
			Code:    0,
			Message: fmt.Sprintf("unparseable error code %v", raw),
			Kind:    KindAPI,
		}
	}
	if code == 0 {
		return nil
	}

	message := defaultMessage
	if m, ok := payload[messageField]; ok && m != nil {
		message = fmt.Sprint(m)
	}

	var ts *int64
	if rawTS, ok := payload[timestampField]; ok {
		if v, ok := toInt64(rawTS); ok {
			ts = &v
		}
	}

	return &Error{
		Code:      code,
		Message:   message,
		Timestamp: ts,
		Kind:      KindForCode(code),
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return KindAPI, false
}

// IsKind reports whether err carries a classified failure of kind k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
