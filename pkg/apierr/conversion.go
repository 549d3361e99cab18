package apierr

import (
	"encoding/json"
	"fmt"

	"bingx/pkg/errors"
)

// maxPayloadPreview bounds the payload text kept on a ConversionError.
const maxPayloadPreview = 300

// ConversionError reports a payload whose shape does not match the requested type.
type ConversionError struct {
	// Payload is the original payload as JSON, truncated for diagnostics.
	Payload string
	// Target is the name of the type the payload was converted to.
	Target string
	Err    error
}

// NewConversionError builds a ConversionError for payload and target.
func NewConversionError(payload any, target string, err error) *ConversionError {
	return &ConversionError{
		Payload: preview(payload),
		Target:  target,
		Err:     err,
	}
}

// Error implements the error interface
func (e *ConversionError) Error() string {
	return fmt.Sprintf("ConversionError: failed to convert %s... to %s: %v", e.Payload, e.Target, e.Err)
}

// Unwrap returns both the cause and the shared conversion category.
func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{errors.ErrConversion}
	}
	return []error{errors.ErrConversion, e.Err}
}

func preview(payload any) string {
	data, err := json.Marshal(payload)
	text := string(data)
	if err != nil {
		text = fmt.Sprint(payload)
	}

	if len(text) > maxPayloadPreview {
		return text[:maxPayloadPreview]
	}
	return text
}
