package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"bingx/pkg/apierr"
)

var validate = validator.New()

// Convert decodes payload into T. Struct targets are then checked against
// their `validate` tags, so a missing required field is reported instead of
// silently zeroed. Any mismatch is an *apierr.ConversionError.
func Convert[T any](payload map[string]any) (T, error) {
	var out T
	target := fmt.Sprintf("%T", out)

	data, err := json.Marshal(payload)
	if err != nil {
		return out, apierr.NewConversionError(payload, target, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return out, apierr.NewConversionError(payload, target, err)
	}

	if err := validateStruct(out); err != nil {
		return out, apierr.NewConversionError(payload, target, err)
	}
	return out, nil
}

// ConvertData is Convert applied to the payload's "data" member, the envelope
// BingX wraps every successful response in.
func ConvertData[T any](payload map[string]any) (T, error) {
	data, ok := payload["data"]
	if !ok {
		var zero T
		return zero, apierr.NewConversionError(payload, fmt.Sprintf("%T", zero), fmt.Errorf("payload has no data member"))
	}

	wrapped := map[string]any{"data": data}
	env, err := Convert[struct {
		Data T `json:"data"`
	}](wrapped)
	if err != nil {
		var zero T
		if convErr, ok := err.(*apierr.ConversionError); ok {
			convErr.Target = fmt.Sprintf("%T", zero)
		}
		return zero, err
	}
	return env.Data, nil
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		// Non-struct targets carry no tags to check.
		return nil
	}
	return err
}
