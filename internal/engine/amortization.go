package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// LoanParams are the inputs for building an amortization schedule. The rate
// is the effective annual rate (TCEA) in percent.
type LoanParams struct {
	Principal     decimal.Decimal
	AnnualRatePct decimal.Decimal
	Installments  int
	StartDate     time.Time
	PaymentDay    int
}

// AmortizationRow is one period of a French-system schedule.
type AmortizationRow struct {
	InstallmentNumber int             `json:"installment_number"`
	PaymentDate       time.Time       `json:"payment_date"`
	PaymentAmount     decimal.Decimal `json:"payment_amount"`
	Principal         decimal.Decimal `json:"principal"`
	Interest          decimal.Decimal `json:"interest"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
	IsPaid            bool            `json:"is_paid"`
}

// MonthlyRate converts an effective annual rate in percent to an effective
// monthly rate: (1 + tea/100)^(1/12) - 1. The conversion compounds; dividing
// by 12 instead drifts visibly over a multi-year schedule. The fractional
// power runs in float64, monetary arithmetic stays in decimal.
func MonthlyRate(annualRatePct decimal.Decimal) decimal.Decimal {
	annual, _ := annualRatePct.Float64()
	if annual == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(math.Pow(1+annual/100, 1.0/12.0) - 1)
}

// MonthlyPayment returns the constant French-system payment:
// M = P * r * (1+r)^n / ((1+r)^n - 1). A zero rate degenerates to an even
// split of the principal.
func MonthlyPayment(principal, monthlyRate decimal.Decimal, installments int) decimal.Decimal {
	if monthlyRate.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(installments))).Round(2)
	}
	r, _ := monthlyRate.Float64()
	factor := decimal.NewFromFloat(math.Pow(1+r, float64(installments)))
	one := decimal.NewFromInt(1)
	return principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(one)).Round(2)
}

// BuildSchedule generates the full principal/interest/balance schedule for a
// loan under the French (constant payment) method. Parameters are rejected
// up front; no partial schedule is ever returned.
//
// Each period charges interest on the running balance and amortizes the
// remainder of the constant payment. The final row's principal is assigned
// from the remaining balance rather than the recurrence, absorbing the
// accumulated rounding residue so the schedule closes at exactly zero.
func BuildSchedule(p LoanParams) ([]AmortizationRow, error) {
	if p.Installments <= 0 {
		return nil, fmt.Errorf("%w: installments must be positive, got %d", ErrInvalidLoanParameters, p.Installments)
	}
	if !p.Principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidLoanParameters, p.Principal)
	}
	if p.AnnualRatePct.IsNegative() {
		return nil, fmt.Errorf("%w: annual rate must not be negative, got %s", ErrInvalidLoanParameters, p.AnnualRatePct)
	}
	if p.PaymentDay < 1 || p.PaymentDay > 31 {
		return nil, fmt.Errorf("%w: payment day %d outside [1,31]", ErrInvalidLoanParameters, p.PaymentDay)
	}

	rate := MonthlyRate(p.AnnualRatePct)
	payment := MonthlyPayment(p.Principal, rate, p.Installments)

	rows := make([]AmortizationRow, 0, p.Installments)
	remaining := p.Principal
	totalPrincipal := decimal.Zero

	for i := 1; i <= p.Installments; i++ {
		interest := remaining.Mul(rate).Round(2)
		principal := payment.Sub(interest)
		rowPayment := payment
		if i == p.Installments {
			// Absorb the rounding residue into the last installment.
			principal = remaining
			rowPayment = principal.Add(interest)
		}
		remaining = remaining.Sub(principal)
		totalPrincipal = totalPrincipal.Add(principal)

		rows = append(rows, AmortizationRow{
			InstallmentNumber: i,
			PaymentDate:       clampedDate(p.StartDate.Year(), p.StartDate.Month()+time.Month(i), p.PaymentDay),
			PaymentAmount:     rowPayment,
			Principal:         principal,
			Interest:          interest,
			RemainingBalance:  remaining,
		})
	}

	if !remaining.IsZero() {
		return nil, fmt.Errorf("%w: final balance %s", ErrScheduleImbalance, remaining)
	}
	if totalPrincipal.Sub(p.Principal).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		return nil, fmt.Errorf("%w: principal sum %s differs from %s", ErrScheduleImbalance, totalPrincipal, p.Principal)
	}

	return rows, nil
}
