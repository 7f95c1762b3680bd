package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Charge/payout statuses as reported by the gateway
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusExpired = "expired"
	StatusFailed  = "failed"
)

// ChargeRequest asks the gateway for a new PIX charge
type ChargeRequest struct {
	Reference    string
	Amount       decimal.Decimal
	CustomerName string
}

// Charge is a PIX charge the customer can pay
type Charge struct {
	ExternalID   string
	PixCopyPaste string
	QRCodeBase64 string
	Status       string
}

// PayoutRequest asks the gateway to send money to a PIX key
type PayoutRequest struct {
	Reference string
	Amount    decimal.Decimal
	PixKey    string
}

// Payout is an outbound transfer tracked at the gateway
type Payout struct {
	ExternalID string
	Status     string
}

// Gateway is the external PIX payment provider. Implementations are
// expected to be safe for concurrent use.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetCharge(ctx context.Context, externalID string) (*Charge, error)
	CreatePayout(ctx context.Context, req PayoutRequest) (*Payout, error)
	GetPayout(ctx context.Context, externalID string) (*Payout, error)
	AvailableBalance(ctx context.Context) (decimal.Decimal, error)
}
