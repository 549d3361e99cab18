package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))

	err := Wrapf(ErrTimeout, "GET %s", "/time")
	assert.EqualError(t, err, "GET /time: operation timeout")
	assert.True(t, Is(err, ErrTimeout))
}

func TestCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"unrelated", New("boom"), nil},
		{"direct", ErrTransport, ErrTransport},
		{"wrapped", Wrap(ErrUnavailable, "redis"), ErrUnavailable},
		{"specific wins", fmt.Errorf("%w: %w", ErrAPI, ErrRateLimitExceeded), ErrRateLimitExceeded},
		{"conversion before input", fmt.Errorf("%w: %w", ErrInvalidInput, ErrConversion), ErrConversion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Category(tt.err))
		})
	}
}
