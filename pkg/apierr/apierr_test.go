package apierr

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingx/pkg/errors"
)

func TestClassifySuccess(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"code zero", map[string]any{"code": json.Number("0"), "data": map[string]any{}}},
		{"code zero float", map[string]any{"code": float64(0)}},
		{"code absent", map[string]any{"data": []any{}}},
		{"code null", map[string]any{"code": nil}},
		{"empty payload", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, Classify(tt.payload))
		})
	}
}

func TestClassifyKnownCodes(t *testing.T) {
	tests := []struct {
		code int64
		kind Kind
	}{
		{400, KindBadRequest},
		{401, KindUnauthorized},
		{403, KindForbidden},
		{404, KindNotFound},
		{418, KindIPBanned},
		{429, KindTooManyRequests},
		{500, KindInternalServer},
		{504, KindGatewayTimeout},
		{80001, KindTradeExecution},
		{80012, KindOperation},
		{80013, KindOrderLimitReached},
		{80014, KindInvalidParameter},
		{80016, KindOrderNotFound},
		{80017, KindPositionNotFound},
		{80018, KindOrderAlreadyFilled},
		{80019, KindOrderProcessing},
		{80020, KindRiskForbidden},
		{100001, KindSignatureVerificationFailed},
		{100004, KindPermissionDenied},
		{100410, KindRateLimit},
		{100412, KindNullSignature},
		{100413, KindIncorrectAPIKey},
		{100419, KindIPWhitelist},
		{100421, KindTimestamp},
		{100500, KindInternalSystem},
		{101204, KindInsufficientMargin},
		{101209, KindMaxPositionValue},
		{101211, KindOrderPrice},
		{101212, KindPendingOrders},
		{101215, KindMakerOrder},
		{101400, KindTradeValidation},
		{101414, KindMaxLeverage},
		{101415, KindTradingPairSuspended},
		{101460, KindLiquidationPrice},
		{101500, KindRPCTimeout},
		{101514, KindSuspendedFromOpeningPositions},
		{109201, KindDuplicateOrder},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := Classify(map[string]any{"code": json.Number(jsonInt(tt.code)), "msg": "boom"})
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, "boom", apiErr.Message)
			assert.True(t, IsKind(err, tt.kind))
		})
	}
}

func TestClassifyIncorrectAPIKey(t *testing.T) {
	err := Classify(map[string]any{
		"code":      json.Number("100413"),
		"msg":       "Incorrect apiKey",
		"timestamp": json.Number("1700000000000"),
	})
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindIncorrectAPIKey, kind)
	assert.Equal(t, CategoryAuth, kind.Category())
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
	assert.Equal(t, "API Error 100413: Incorrect apiKey (Timestamp: 1700000000000)", err.Error())
}

func TestClassifyUnknownCode(t *testing.T) {
	err := Classify(map[string]any{"code": json.Number("999999")})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, int64(999999), apiErr.Code)
	assert.Equal(t, KindAPI, apiErr.Kind)
	assert.Equal(t, "No error message provided", apiErr.Message)
	assert.Nil(t, apiErr.Timestamp)
	assert.True(t, errors.Is(err, errors.ErrAPI))
	assert.Equal(t, CategoryGeneric, apiErr.Kind.Category())
}

func TestClassifyCodeRepresentations(t *testing.T) {
	tests := []struct {
		name string
		code any
	}{
		{"json number", json.Number("100410")},
		{"float", float64(100410)},
		{"int", 100410},
		{"int64", int64(100410)},
		{"string", "100410"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(map[string]any{"code": tt.code})
			assert.True(t, IsKind(err, KindRateLimit))
			assert.True(t, errors.Is(err, errors.ErrRateLimitExceeded))
		})
	}
}

func TestClassifyUnparseableCode(t *testing.T) {
	err := Classify(map[string]any{"code": "abc"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindAPI))
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := Classify(map[string]any{"code": json.Number("80016"), "msg": "order not exist"})

	assert.True(t, errors.Is(err, &Error{Kind: KindOrderNotFound}))
	assert.True(t, errors.Is(err, &Error{Code: 80016, Kind: KindOrderNotFound}))
	assert.False(t, errors.Is(err, &Error{Code: 1, Kind: KindOrderNotFound}))
	assert.False(t, errors.Is(err, &Error{Kind: KindPositionNotFound}))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsKind(nil, KindAPI))
}

func TestKindOfWrapped(t *testing.T) {
	err := errors.Wrap(Classify(map[string]any{"code": 101204}), "place order")
	assert.True(t, IsKind(err, KindInsufficientMargin))
	assert.True(t, errors.Is(err, errors.ErrInsufficientBalance))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, CategoryTrading, KindDuplicateOrder.Category())
	assert.Equal(t, CategoryServer, KindRPCTimeout.Category())
	assert.Equal(t, CategoryRequest, KindInvalidParameter.Category())
	assert.Equal(t, "unknown", Kind(-1).String())
}

func TestConversionError(t *testing.T) {
	payload := map[string]any{"data": strings.Repeat("x", 500)}
	err := NewConversionError(payload, "spot.Ticker", errors.New("missing field price"))

	assert.Len(t, err.Payload, 300)
	assert.Equal(t, "spot.Ticker", err.Target)
	assert.True(t, errors.Is(err, errors.ErrConversion))
	assert.Contains(t, err.Error(), "to spot.Ticker")
	assert.Contains(t, err.Error(), "missing field price")
}

func TestConversionErrorShortPayload(t *testing.T) {
	err := NewConversionError(map[string]any{"a": 1}, "T", nil)
	assert.Equal(t, `{"a":1}`, err.Payload)
	assert.True(t, errors.Is(err, errors.ErrConversion))
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
