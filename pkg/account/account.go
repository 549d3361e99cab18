// Package account covers the account-level endpoints: user data stream
// listen keys, API key permissions and main-account internal transfers.
package account

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bingx/pkg/client"
	"bingx/pkg/errors"
	"bingx/pkg/signer"
)

const (
	listenKeyPath     = "/openApi/user/auth/userDataStream"
	permissionsPath   = "/openApi/v1/account/apiPermissions"
	innerTransferPath = "/openApi/wallets/v1/capital/innerTransfer/apply"
)

var validate = validator.New()

// Permission is a capability granted to an API key.
type Permission int

const (
	PermissionSpotTrading         Permission = 1
	PermissionRead                Permission = 2
	PermissionPerpetualTrading    Permission = 3
	PermissionUniversalTransfer   Permission = 4
	PermissionWithdraw            Permission = 5
	PermissionSubAccountTransfers Permission = 7
)

// Permissions describes the API key used by the client.
type Permissions struct {
	APIKey      string       `json:"apiKey" validate:"required"`
	Permissions []Permission `json:"permissions"`
	IPAddresses []string     `json:"ipAddresses"`
	Note        string       `json:"note"`
}

// Has reports whether p grants perm.
func (p Permissions) Has(perm Permission) bool {
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}

type listenKey struct {
	ListenKey string `json:"listenKey" validate:"required"`
}

// AccountType identifies how InnerTransfer addresses the recipient.
type AccountType int

const (
	AccountUID   AccountType = 1
	AccountPhone AccountType = 2
	AccountEmail AccountType = 3
)

// Wallet is the source wallet of a transfer.
type Wallet int

const (
	WalletFund             Wallet = 1
	WalletStandardFutures  Wallet = 2
	WalletPerpetualFutures Wallet = 3
)

// InnerTransferOptions describes a transfer to another BingX main account.
type InnerTransferOptions struct {
	Coin            string      `validate:"required"`
	UserAccountType AccountType `validate:"oneof=1 2 3"`
	UserAccount     string      `validate:"required"`
	WalletType      Wallet      `validate:"oneof=1 2 3"`

	// Amount must be positive.
	Amount decimal.Decimal

	// CallingCode is the phone area code, required for AccountPhone.
	CallingCode string `validate:"required_if=UserAccountType 2"`
	// TransferClientID is generated when empty so retries stay idempotent.
	TransferClientID string
	RecvWindow       time.Duration
}

// Validate checks the options before anything is signed.
func (o *InnerTransferOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	if !o.Amount.IsPositive() {
		return errors.Wrap(errors.ErrInvalidInput, "amount must be positive")
	}
	return nil
}

func (o *InnerTransferOptions) params() signer.Params {
	return signer.Params{
		"coin":             o.Coin,
		"userAccountType":  int(o.UserAccountType),
		"userAccount":      o.UserAccount,
		"amount":           o.Amount,
		"walletType":       int(o.WalletType),
		"transferClientId": o.TransferClientID,
	}.
		SetIf(o.CallingCode != "", "callingCode", o.CallingCode).
		SetIf(o.RecvWindow > 0, "recvWindow", o.RecvWindow.Milliseconds())
}

// Transfer is the accepted internal transfer.
type Transfer struct {
	ID       string `json:"id" validate:"required"`
	ClientID string `json:"-"`
}

// Service wraps a client with account calls.
type Service struct {
	c *client.Client
}

// New creates a Service on c.
func New(c *client.Client) *Service {
	return &Service{c: c}
}

// GenerateListenKey creates a user data stream key, valid for 60 minutes.
func (s *Service) GenerateListenKey(ctx context.Context) (string, error) {
	payload, err := s.c.Post(ctx, listenKeyPath, nil)
	if err != nil {
		return "", err
	}
	lk, err := client.Convert[listenKey](payload)
	if err != nil {
		return "", err
	}
	return lk.ListenKey, nil
}

// ExtendListenKey pushes the expiry of key 60 minutes forward.
func (s *Service) ExtendListenKey(ctx context.Context, key string) error {
	if key == "" {
		return errors.Wrap(errors.ErrInvalidInput, "listen key is required")
	}
	_, err := s.c.Put(ctx, listenKeyPath, signer.Params{"listenKey": key})
	return err
}

// DeleteListenKey closes the user data stream of key.
func (s *Service) DeleteListenKey(ctx context.Context, key string) error {
	if key == "" {
		return errors.Wrap(errors.ErrInvalidInput, "listen key is required")
	}
	_, err := s.c.Delete(ctx, listenKeyPath, signer.Params{"listenKey": key})
	return err
}

// APIPermissions returns the permissions of the client's API key. The result
// rarely changes; pass client.Cached() to serve it from the response cache.
func (s *Service) APIPermissions(ctx context.Context, recvWindow time.Duration, opts ...client.CallOption) (*Permissions, error) {
	params := signer.Params{}.SetIf(recvWindow > 0, "recvWindow", recvWindow.Milliseconds())

	payload, err := s.c.Get(ctx, permissionsPath, params, opts...)
	if err != nil {
		return nil, err
	}
	perms, err := client.Convert[Permissions](payload)
	if err != nil {
		return nil, err
	}
	return &perms, nil
}

// InnerTransfer moves funds to another main account.
func (s *Service) InnerTransfer(ctx context.Context, opts InnerTransferOptions) (*Transfer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.TransferClientID == "" {
		opts.TransferClientID = uuid.NewString()
	}

	tr, err := client.Fetch[Transfer](ctx, s.c, client.Request{
		Method: http.MethodPost,
		Path:   innerTransferPath,
		Params: opts.params(),
	})
	if err != nil {
		return nil, err
	}
	tr.ClientID = opts.TransferClientID
	return &tr, nil
}
