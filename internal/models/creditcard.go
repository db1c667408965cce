package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditCard represents a credit card in the system. AvailableCredit is
// always CreditLimit - CurrentBalance, computed at read time.
type CreditCard struct {
	ID                   int64           `json:"id"`
	UserID               int64           `json:"user_id"`
	Name                 string          `json:"name"`
	CreditLimit          decimal.Decimal `json:"credit_limit"`
	CurrentBalance       decimal.Decimal `json:"current_balance"`
	RevolvingDebt        decimal.Decimal `json:"revolving_debt"`
	AvailableCredit      decimal.Decimal `json:"available_credit"`
	StatementDay         int             `json:"statement_day"`
	PaymentDueOffsetDays int             `json:"payment_due_offset_days"`
	TEA                  decimal.Decimal `json:"tea"` // annual effective rate, percent
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
