package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AdvisorPolicy is the product policy layered on top of the raw cost
// figures. The engine always exposes the three raw totals so the threshold
// can change without recomputation.
type AdvisorPolicy struct {
	// ExpectsFullPayment indicates the buyer intends to pay the purchase in
	// full within the current cycle. Revolving carries no interest in that
	// case, so it always wins.
	ExpectsFullPayment bool
	// MaxInterestRatioPct is the installment-interest-to-amount percentage
	// at or below which financing is still recommended for a buyer who will
	// not pay in full.
	MaxInterestRatioPct decimal.Decimal
}

// DefaultAdvisorPolicy assumes full payment within the cycle and tolerates
// up to 5% total interest when it cannot.
func DefaultAdvisorPolicy() AdvisorPolicy {
	return AdvisorPolicy{
		ExpectsFullPayment:  true,
		MaxInterestRatioPct: decimal.NewFromInt(5),
	}
}

// RevolvingOption is the cost of paying the purchase as revolving balance.
// No interest is shown at the point of purchase; it only accrues later on an
// unpaid revolving balance, which is outside this engine.
type RevolvingOption struct {
	TotalToPay decimal.Decimal `json:"total_to_pay"`
}

// InstallmentsOption is the cost of financing the purchase over N months at
// the card's TEA.
type InstallmentsOption struct {
	Installments   int             `json:"installments"`
	TEA            decimal.Decimal `json:"tea"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	TotalToPay     decimal.Decimal `json:"total_to_pay"`
}

// Recommendation names the better option and why.
type Recommendation struct {
	BestOption string `json:"best_option"`
	Reason     string `json:"reason"`
}

// WarningDetails carries the figures behind an insufficient-credit warning.
type WarningDetails struct {
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	ShortBy         decimal.Decimal `json:"short_by"`
	Action          string          `json:"action"`
}

// CreditWarning is the displayable insufficient-credit payload. It is a
// first-class business outcome, not an error: the UI renders it as guidance.
type CreditWarning struct {
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Details WarningDetails `json:"details"`
}

// PurchaseAdvice is the advisor's result. Either the option/recommendation
// fields are populated, or Error/Warning are set when the purchase exceeds
// the available credit.
type PurchaseAdvice struct {
	RevolvingOption    *RevolvingOption    `json:"revolvente_option,omitempty"`
	InstallmentsOption *InstallmentsOption `json:"installments_option,omitempty"`
	Recommendation     *Recommendation     `json:"recommendation,omitempty"`
	Error              string              `json:"error,omitempty"`
	Warning            *CreditWarning      `json:"warning,omitempty"`
}

// Advise compares paying a prospective purchase revolving versus financing
// it in installments. The credit check runs first: a purchase over the
// available credit returns only the warning variant, with no cost figures.
// An installment option is produced only when installments > 1.
func Advise(card CreditCard, amount decimal.Decimal, installments int, timeline CycleTimeline, policy AdvisorPolicy) (PurchaseAdvice, error) {
	if !amount.IsPositive() {
		return PurchaseAdvice{}, fmt.Errorf("%w: purchase amount must be positive, got %s", ErrInvalidLoanParameters, amount)
	}

	available := card.AvailableCredit()
	if amount.GreaterThan(available) {
		shortBy := amount.Sub(available)
		return PurchaseAdvice{
			Error: "insufficient_credit",
			Warning: &CreditWarning{
				Title:   "Crédito insuficiente",
				Message: fmt.Sprintf("La compra de %s supera tu crédito disponible de %s", amount.StringFixed(2), available.StringFixed(2)),
				Details: WarningDetails{
					RequestedAmount: amount.Round(2),
					AvailableCredit: available.Round(2),
					ShortBy:         shortBy.Round(2),
					Action:          "Reduce el monto de la compra o paga parte de tu saldo actual antes de comprar",
				},
			},
		}, nil
	}

	advice := PurchaseAdvice{
		RevolvingOption: &RevolvingOption{TotalToPay: amount.Round(2)},
	}

	if installments > 1 {
		rows, err := BuildSchedule(LoanParams{
			Principal:     amount,
			AnnualRatePct: card.TEA,
			Installments:  installments,
			StartDate:     timeline.CurrentCycle.StatementDate,
			PaymentDay:    timeline.CurrentCycle.DueDate.Day(),
		})
		if err != nil {
			return PurchaseAdvice{}, err
		}

		total := decimal.Zero
		for _, row := range rows {
			total = total.Add(row.PaymentAmount)
		}
		advice.InstallmentsOption = &InstallmentsOption{
			Installments:   installments,
			TEA:            card.TEA,
			MonthlyPayment: rows[0].PaymentAmount,
			TotalInterest:  total.Sub(amount).Round(2),
			TotalToPay:     total.Round(2),
		}
	}

	advice.Recommendation = recommend(advice, timeline, policy)
	return advice, nil
}

func recommend(advice PurchaseAdvice, timeline CycleTimeline, policy AdvisorPolicy) *Recommendation {
	if policy.ExpectsFullPayment || advice.InstallmentsOption == nil {
		return &Recommendation{
			BestOption: "revolvente",
			Reason: fmt.Sprintf(
				"Pagando el total dentro del ciclo no generas intereses y aprovechas %d días de financiamiento gratis",
				timeline.FloatCalculator.IfBuyToday.FloatDays,
			),
		}
	}

	opt := advice.InstallmentsOption
	ratio := opt.TotalInterest.Div(advice.RevolvingOption.TotalToPay).Mul(decimal.NewFromInt(100))
	if ratio.LessThanOrEqual(policy.MaxInterestRatioPct) {
		return &Recommendation{
			BestOption: "installments",
			Reason: fmt.Sprintf(
				"Financiar en %d cuotas de %s cuesta %s de interés (%s%% del monto) y reparte el pago en el tiempo",
				opt.Installments, opt.MonthlyPayment.StringFixed(2), opt.TotalInterest.StringFixed(2), ratio.StringFixed(1),
			),
		}
	}

	return &Recommendation{
		BestOption: "depends",
		Reason: fmt.Sprintf(
			"Revolvente cuesta %s si pagas pronto; %d cuotas cuestan %s en total (%s de interés). Depende de tu liquidez este mes",
			advice.RevolvingOption.TotalToPay.StringFixed(2), opt.Installments, opt.TotalToPay.StringFixed(2), opt.TotalInterest.StringFixed(2),
		),
	}
}
