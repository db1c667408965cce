package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan represents a loan amortized under the French method. MonthlyPayment
// is derived at creation time and persisted for display consistency; the
// current installment, remaining balance and completion percentage are
// derived on every read and never stored.
type Loan struct {
	ID                   int64           `json:"id"`
	UserID               int64           `json:"user_id"`
	Name                 string          `json:"name"`
	OriginalAmount       decimal.Decimal `json:"original_amount"`
	AnnualRate           decimal.Decimal `json:"annual_rate"` // TCEA, percent
	TotalInstallments    int             `json:"total_installments"`
	BaseInstallmentsPaid int             `json:"base_installments_paid"`
	StartDate            time.Time       `json:"start_date"`
	PaymentDay           int             `json:"payment_day"`
	MonthlyPayment       decimal.Decimal `json:"monthly_payment"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
