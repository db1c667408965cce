package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// ProgressSnapshot is the derived position of a loan. It is recomputed on
// every read from the attested base count plus the linked payment count;
// nothing in it is ever stored, so the position can never drift from the
// actual set of linked transactions.
type ProgressSnapshot struct {
	CurrentInstallment    int             `json:"current_installment"`
	RemainingInstallments int             `json:"remaining_installments"`
	CompletionPercentage  float64         `json:"completion_percentage"`
	CurrentDebt           decimal.Decimal `json:"current_debt"`
}

// LoanProgress projects the loan's current state from its schedule.
// basePaid is the manually attested installment count, linkedPayments the
// number of payment transactions linked to the loan. The sum is capped at
// the total installment count.
func LoanProgress(originalAmount decimal.Decimal, totalInstallments, basePaid, linkedPayments int, schedule []AmortizationRow) ProgressSnapshot {
	current := basePaid + linkedPayments
	if current < 0 {
		current = 0
	}
	if current > totalInstallments {
		current = totalInstallments
	}

	debt := originalAmount
	if current > 0 && current <= len(schedule) {
		debt = schedule[current-1].RemainingBalance
	}

	var pct float64
	if totalInstallments > 0 {
		pct = math.Round(10000*float64(current)/float64(totalInstallments)) / 100
	}

	return ProgressSnapshot{
		CurrentInstallment:    current,
		RemainingInstallments: totalInstallments - current,
		CompletionPercentage:  pct,
		CurrentDebt:           debt,
	}
}

// MarkPaid flags every schedule row at or below the current installment.
func MarkPaid(schedule []AmortizationRow, currentInstallment int) {
	for i := range schedule {
		schedule[i].IsPaid = schedule[i].InstallmentNumber <= currentInstallment
	}
}
