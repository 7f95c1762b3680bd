package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across services
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrDrawNotFound          = errors.New("draw not found")
	ErrDrawClosed            = errors.New("draw is closed for wagers")
	ErrDrawAlreadySettled    = errors.New("draw already settled")
	ErrTransactionNotFound   = errors.New("payment transaction not found")
	ErrWithdrawalNotPending  = errors.New("withdrawal is not pending")
	ErrGatewayBalanceLow     = errors.New("gateway balance below withdrawal amount")
	ErrDepositBelowMinimum   = errors.New("deposit amount below minimum")
	ErrForbiddenTransaction  = errors.New("transaction belongs to another account")
)

// InsufficientBalanceError reports a failed debit together with the
// numbers the caller needs to retry with a different funding source.
type InsufficientBalanceError struct {
	Source   string // models.FundingReal or models.FundingBonus
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: have %s, need %s",
		e.Source, e.Balance.StringFixed(2), e.Required.StringFixed(2))
}
