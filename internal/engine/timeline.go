package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreditCard is the card state the timeline and advisor operate on.
type CreditCard struct {
	CreditLimit          decimal.Decimal
	CurrentBalance       decimal.Decimal
	RevolvingDebt        decimal.Decimal
	StatementDay         int
	PaymentDueOffsetDays int
	TEA                  decimal.Decimal
}

// AvailableCredit is the spendable portion of the limit.
func (c CreditCard) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.CurrentBalance)
}

// CurrentCycle holds the key dates of the statement cycle containing the
// reference date.
type CurrentCycle struct {
	CycleStart       time.Time `json:"cycle_start"`
	StatementDate    time.Time `json:"statement_date"`
	DueDate          time.Time `json:"due_date"`
	DaysUntilClose   int       `json:"days_until_close"`
	DaysUntilPayment int       `json:"days_until_payment"`
}

// PurchaseWindow is a date range with the float days a purchase at its start
// would earn.
type PurchaseWindow struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	FloatDays int       `json:"float_days"`
}

// CyclePhase is a qualitative band of the cycle for making new purchases.
type CyclePhase struct {
	Phase       string `json:"phase"`
	Description string `json:"description"`
	DateRange   string `json:"date_range"`
}

// TimelineSection groups the advisory parts of the timeline.
type TimelineSection struct {
	BestPurchaseWindow PurchaseWindow `json:"best_purchase_window"`
	CyclePhases        []CyclePhase   `json:"cycle_phases"`
}

// FloatToday reports the float days a purchase made on the reference date
// would earn.
type FloatToday struct {
	FloatDays int `json:"float_days"`
}

// FloatCalculator wraps the "if you buy today" figure.
type FloatCalculator struct {
	IfBuyToday FloatToday `json:"if_buy_today"`
}

// CycleTimeline is the full statement-cycle view for a credit card.
type CycleTimeline struct {
	CurrentCycle    CurrentCycle    `json:"current_cycle"`
	Timeline        TimelineSection `json:"timeline"`
	FloatCalculator FloatCalculator `json:"float_calculator"`
}

// statementCycle returns the start and closing (statement) dates of the
// cycle containing ref. The statement day is clamped per month; a cycle runs
// from the day after the previous statement through the statement date.
func statementCycle(statementDay int, ref time.Time) (start, statement time.Time) {
	statement = clampedDate(ref.Year(), ref.Month(), statementDay)
	if ref.After(statement) {
		start = statement.AddDate(0, 0, 1)
		statement = clampedDate(statement.Year(), statement.Month()+1, statementDay)
		return start, statement
	}
	prev := clampedDate(ref.Year(), ref.Month()-1, statementDay)
	return prev.AddDate(0, 0, 1), statement
}

// FloatDays returns the interest-free days a purchase made on purchaseDate
// would earn before its due date. A purchase on or before the statement date
// settles on this cycle's due date; one day later it rolls into the next
// cycle and gains a full extra cycle of float. That jump is the whole point
// of the optimal purchase window, so it is never smoothed over.
func FloatDays(card CreditCard, purchaseDate time.Time) int {
	_, statement := statementCycle(card.StatementDay, dateOnly(purchaseDate))
	due := statement.AddDate(0, 0, card.PaymentDueOffsetDays)
	return daysBetween(purchaseDate, due)
}

// Timeline computes the current statement cycle's key dates, the optimal
// purchase window, the qualitative cycle phases and the float a purchase
// made on the reference date would earn.
func Timeline(card CreditCard, referenceDate time.Time) (CycleTimeline, error) {
	if card.StatementDay < 1 || card.StatementDay > 31 {
		return CycleTimeline{}, fmt.Errorf("%w: statement day %d outside [1,31]", ErrInvalidConfiguration, card.StatementDay)
	}
	if card.PaymentDueOffsetDays < 0 {
		return CycleTimeline{}, fmt.Errorf("%w: payment due offset must not be negative, got %d", ErrInvalidConfiguration, card.PaymentDueOffsetDays)
	}

	ref := dateOnly(referenceDate)
	start, statement := statementCycle(card.StatementDay, ref)
	due := statement.AddDate(0, 0, card.PaymentDueOffsetDays)
	nextStatement := clampedDate(statement.Year(), statement.Month()+1, card.StatementDay)

	daysUntilClose := daysBetween(ref, statement)
	if daysUntilClose < 0 {
		daysUntilClose = 0
	}
	daysUntilPayment := daysBetween(ref, due)
	if daysUntilPayment < 0 {
		daysUntilPayment = 0
	}

	windowStart := statement.AddDate(0, 0, 1)
	best := PurchaseWindow{
		Start:     windowStart,
		End:       nextStatement,
		FloatDays: daysBetween(windowStart, nextStatement.AddDate(0, 0, card.PaymentDueOffsetDays)),
	}

	return CycleTimeline{
		CurrentCycle: CurrentCycle{
			CycleStart:       start,
			StatementDate:    statement,
			DueDate:          due,
			DaysUntilClose:   daysUntilClose,
			DaysUntilPayment: daysUntilPayment,
		},
		Timeline: TimelineSection{
			BestPurchaseWindow: best,
			CyclePhases:        cyclePhases(start, statement),
		},
		FloatCalculator: FloatCalculator{
			IfBuyToday: FloatToday{FloatDays: FloatDays(card, ref)},
		},
	}, nil
}

// cyclePhases partitions the cycle into optimal/normal/risky bands by
// fractional splits (roughly 20/60/20) so the bands scale with the cycle
// length instead of using hard day counts.
func cyclePhases(start, statement time.Time) []CyclePhase {
	length := daysBetween(start, statement) + 1
	band := length / 5
	if band < 1 {
		band = 1
	}

	optimalEnd := start.AddDate(0, 0, band-1)
	riskyStart := statement.AddDate(0, 0, -(band - 1))
	if riskyStart.Before(optimalEnd.AddDate(0, 0, 1)) {
		riskyStart = optimalEnd.AddDate(0, 0, 1)
	}

	phases := []CyclePhase{
		{
			Phase:       "optimal",
			Description: "Recién cerró el ciclo: compra aquí para obtener el máximo de días sin intereses",
			DateRange:   formatDateRange(start, optimalEnd),
		},
	}

	normalStart := optimalEnd.AddDate(0, 0, 1)
	normalEnd := riskyStart.AddDate(0, 0, -1)
	if !normalEnd.Before(normalStart) {
		phases = append(phases, CyclePhase{
			Phase:       "normal",
			Description: "Mitad del ciclo: días de financiamiento moderados",
			DateRange:   formatDateRange(normalStart, normalEnd),
		})
	}

	if !statement.Before(riskyStart) {
		phases = append(phases, CyclePhase{
			Phase:       "risky",
			Description: "El cierre está cerca: una compra aquí tendrá muy pocos días de financiamiento",
			DateRange:   formatDateRange(riskyStart, statement),
		})
	}

	return phases
}

func formatDateRange(start, end time.Time) string {
	return fmt.Sprintf("%s %d - %s %d", monthAbbrev[start.Month()], start.Day(), monthAbbrev[end.Month()], end.Day())
}
