package client

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingx/pkg/apierr"
	"bingx/pkg/errors"
)

type listenKey struct {
	ListenKey string `json:"listenKey" validate:"required"`
}

type serverTime struct {
	ServerTime int64 `json:"serverTime" validate:"required"`
}

func TestConvert(t *testing.T) {
	got, err := Convert[listenKey](map[string]any{"listenKey": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ListenKey)
}

func TestConvertMissingRequiredField(t *testing.T) {
	_, err := Convert[listenKey](map[string]any{"other": 1})
	require.Error(t, err)

	var convErr *apierr.ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "client.listenKey", convErr.Target)
	assert.Equal(t, `{"other":1}`, convErr.Payload)
	assert.ErrorIs(t, err, errors.ErrConversion)
}

func TestConvertTypeMismatch(t *testing.T) {
	_, err := Convert[serverTime](map[string]any{"serverTime": "soon"})
	var convErr *apierr.ConversionError
	require.True(t, errors.As(err, &convErr))
}

func TestConvertNumbers(t *testing.T) {
	type price struct {
		Price decimal.Decimal `json:"price"`
		Qty   float64         `json:"qty"`
	}

	got, err := Convert[price](map[string]any{"price": "65000.10", "qty": json.Number("0.25")})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("65000.1").Equal(got.Price))
	assert.InDelta(t, 0.25, got.Qty, 1e-9)
}

func TestConvertNonStruct(t *testing.T) {
	got, err := Convert[map[string]string](map[string]any{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "b"}, got)
}

func TestConvertData(t *testing.T) {
	payload := map[string]any{"code": json.Number("0"), "data": map[string]any{"serverTime": json.Number("1700000000000")}}

	got, err := ConvertData[serverTime](payload)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), got.ServerTime)
}

func TestConvertDataMissing(t *testing.T) {
	_, err := ConvertData[serverTime](map[string]any{"code": json.Number("0")})
	var convErr *apierr.ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "client.serverTime", convErr.Target)

	_, err = ConvertData[serverTime](map[string]any{"data": map[string]any{}})
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "client.serverTime", convErr.Target)
}
