package apierr

import (
	"bingx/pkg/errors"
)

// Kind identifies a classified exchange failure.
type Kind int

const (
	// KindAPI is the generic kind for codes without a specific mapping.
	KindAPI Kind = iota

	// HTTP-style codes the exchange embeds in payloads
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindTooManyRequests
	KindIPBanned
	KindInternalServer
	KindGatewayTimeout

	// Signature and authentication
	KindSignatureVerificationFailed
	KindNullSignature
	KindIncorrectAPIKey
	KindTimestamp
	KindPermissionDenied
	KindIPWhitelist

	// Trading and business rules
	KindInternalSystem
	KindOperation
	KindInvalidParameter
	KindOrderNotFound
	KindPositionNotFound
	KindRiskForbidden
	KindInsufficientMargin
	KindOrderLimitReached
	KindOrderAlreadyFilled
	KindOrderProcessing
	KindRateLimit
	KindMaxPositionValue
	KindPendingOrders
	KindMakerOrder
	KindMaxLeverage
	KindTradingPairSuspended
	KindLiquidationPrice
	KindRPCTimeout
	KindSuspendedFromOpeningPositions
	KindDuplicateOrder
	KindOrderPrice
	KindTradeValidation
	KindTradeExecution
)

// codeKinds is the static code table of the BingX API.
var codeKinds = map[int64]Kind{
	400: KindBadRequest,
	401: KindUnauthorized,
	403: KindForbidden,
	404: KindNotFound,
	429: KindTooManyRequests,
	418: KindIPBanned,
	500: KindInternalServer,
	504: KindGatewayTimeout,

	100001: KindSignatureVerificationFailed,
	100500: KindInternalSystem,
	80012:  KindOperation,
	80014:  KindInvalidParameter,
	80016:  KindOrderNotFound,
	80017:  KindPositionNotFound,
	80020:  KindRiskForbidden,
	100004: KindPermissionDenied,
	100419: KindIPWhitelist,
	101204: KindInsufficientMargin,
	80013:  KindOrderLimitReached,
	80018:  KindOrderAlreadyFilled,
	80019:  KindOrderProcessing,
	100412: KindNullSignature,
	100413: KindIncorrectAPIKey,
	100421: KindTimestamp,
	100410: KindRateLimit,
	101209: KindMaxPositionValue,
	101212: KindPendingOrders,
	101215: KindMakerOrder,
	101414: KindMaxLeverage,
	101415: KindTradingPairSuspended,
	101460: KindLiquidationPrice,
	101500: KindRPCTimeout,
	101514: KindSuspendedFromOpeningPositions,
	109201: KindDuplicateOrder,
	101211: KindOrderPrice,
	101400: KindTradeValidation,
	80001:  KindTradeExecution,
}

var kindNames = map[Kind]string{
	KindAPI:                           "api_error",
	KindBadRequest:                    "bad_request",
	KindUnauthorized:                  "unauthorized",
	KindForbidden:                     "forbidden",
	KindNotFound:                      "not_found",
	KindTooManyRequests:               "too_many_requests",
	KindIPBanned:                      "ip_banned",
	KindInternalServer:                "internal_server",
	KindGatewayTimeout:                "gateway_timeout",
	KindSignatureVerificationFailed:   "signature_verification_failed",
	KindNullSignature:                 "null_signature",
	KindIncorrectAPIKey:               "incorrect_api_key",
	KindTimestamp:                     "timestamp",
	KindPermissionDenied:              "permission_denied",
	KindIPWhitelist:                   "ip_whitelist",
	KindInternalSystem:                "internal_system",
	KindOperation:                     "operation",
	KindInvalidParameter:              "invalid_parameter",
	KindOrderNotFound:                 "order_not_found",
	KindPositionNotFound:              "position_not_found",
	KindRiskForbidden:                 "risk_forbidden",
	KindInsufficientMargin:            "insufficient_margin",
	KindOrderLimitReached:             "order_limit_reached",
	KindOrderAlreadyFilled:            "order_already_filled",
	KindOrderProcessing:               "order_processing",
	KindRateLimit:                     "rate_limit",
	KindMaxPositionValue:              "max_position_value",
	KindPendingOrders:                 "pending_orders",
	KindMakerOrder:                    "maker_order",
	KindMaxLeverage:                   "max_leverage",
	KindTradingPairSuspended:          "trading_pair_suspended",
	KindLiquidationPrice:              "liquidation_price",
	KindRPCTimeout:                    "rpc_timeout",
	KindSuspendedFromOpeningPositions: "suspended_from_opening_positions",
	KindDuplicateOrder:                "duplicate_order",
	KindOrderPrice:                    "order_price",
	KindTradeValidation:               "trade_validation",
	KindTradeExecution:                "trade_execution",
}

// KindForCode returns the kind mapped to code, or KindAPI when unmapped.
func KindForCode(code int64) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	return KindAPI
}

// String returns the snake_case name used in logs and metrics.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Category groups kinds by how a caller is expected to react.
type Category int

const (
	// CategoryGeneric covers codes without a specific mapping.
	CategoryGeneric Category = iota
	// CategoryAuth failures need credential, clock or permission changes.
	CategoryAuth
	// CategoryRequest failures are caused by the request itself.
	CategoryRequest
	// CategoryTrading failures are business-rule rejections.
	CategoryTrading
	// CategoryServer failures are on the exchange side and may be transient.
	CategoryServer
)

func (c Category) String() string {
	switch c {
	case CategoryAuth:
		return "auth"
	case CategoryRequest:
		return "request"
	case CategoryTrading:
		return "trading"
	case CategoryServer:
		return "server"
	default:
		return "generic"
	}
}

// Category returns the group k belongs to.
func (k Kind) Category() Category {
	switch k {
	case KindUnauthorized, KindForbidden, KindIPBanned,
		KindSignatureVerificationFailed, KindNullSignature, KindIncorrectAPIKey,
		KindTimestamp, KindPermissionDenied, KindIPWhitelist:
		return CategoryAuth
	case KindBadRequest, KindNotFound, KindInvalidParameter, KindTooManyRequests, KindRateLimit:
		return CategoryRequest
	case KindInternalServer, KindGatewayTimeout, KindInternalSystem, KindRPCTimeout:
		return CategoryServer
	case KindAPI:
		return CategoryGeneric
	default:
		return CategoryTrading
	}
}

// sentinel maps a kind onto the shared error categories in pkg/errors.
func (k Kind) sentinel() error {
	switch k {
	case KindRateLimit, KindTooManyRequests:
		return errors.ErrRateLimitExceeded
	case KindInsufficientMargin:
		return errors.ErrInsufficientBalance
	case KindPositionNotFound:
		return errors.ErrPositionNotFound
	case KindOrderNotFound, KindNotFound:
		return errors.ErrNotFound
	case KindTradingPairSuspended:
		return errors.ErrInvalidSymbol
	case KindInvalidParameter, KindBadRequest:
		return errors.ErrInvalidInput
	case KindGatewayTimeout, KindRPCTimeout:
		return errors.ErrTimeout
	case KindInternalServer, KindInternalSystem:
		return errors.ErrUnavailable
	}

	switch k.Category() {
	case CategoryAuth:
		return errors.ErrUnauthorized
	case CategoryTrading:
		return errors.ErrOrderRejected
	default:
		return errors.ErrAPI
	}
}
