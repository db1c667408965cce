package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testCard() CreditCard {
	return CreditCard{
		CreditLimit:          decimal.NewFromInt(5000),
		CurrentBalance:       decimal.NewFromInt(1500),
		RevolvingDebt:        decimal.NewFromInt(300),
		StatementDay:         20,
		PaymentDueOffsetDays: 10,
		TEA:                  decimal.NewFromFloat(42.5),
	}
}

func TestTimeline_KeyDates(t *testing.T) {
	tl, err := Timeline(testCard(), date(2026, time.September, 10))
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}

	cycle := tl.CurrentCycle
	if want := date(2026, time.August, 21); !cycle.CycleStart.Equal(want) {
		t.Errorf("CycleStart = %v, want %v", cycle.CycleStart, want)
	}
	if want := date(2026, time.September, 20); !cycle.StatementDate.Equal(want) {
		t.Errorf("StatementDate = %v, want %v", cycle.StatementDate, want)
	}
	if want := date(2026, time.September, 30); !cycle.DueDate.Equal(want) {
		t.Errorf("DueDate = %v, want %v", cycle.DueDate, want)
	}
	if cycle.DaysUntilClose != 10 {
		t.Errorf("DaysUntilClose = %d, want 10", cycle.DaysUntilClose)
	}
	if cycle.DaysUntilPayment != 20 {
		t.Errorf("DaysUntilPayment = %d, want 20", cycle.DaysUntilPayment)
	}
}

func TestTimeline_AfterStatementRollsCycle(t *testing.T) {
	tl, err := Timeline(testCard(), date(2026, time.September, 25))
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}

	cycle := tl.CurrentCycle
	if want := date(2026, time.September, 21); !cycle.CycleStart.Equal(want) {
		t.Errorf("CycleStart = %v, want %v", cycle.CycleStart, want)
	}
	if want := date(2026, time.October, 20); !cycle.StatementDate.Equal(want) {
		t.Errorf("StatementDate = %v, want %v", cycle.StatementDate, want)
	}
}

func TestTimeline_StatementDayClampsInFebruary(t *testing.T) {
	card := testCard()
	card.StatementDay = 31

	tl, err := Timeline(card, date(2026, time.February, 10))
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}

	if want := date(2026, time.February, 28); !tl.CurrentCycle.StatementDate.Equal(want) {
		t.Errorf("StatementDate = %v, want %v", tl.CurrentCycle.StatementDate, want)
	}
	if want := date(2026, time.February, 1); !tl.CurrentCycle.CycleStart.Equal(want) {
		t.Errorf("CycleStart = %v, want %v", tl.CurrentCycle.CycleStart, want)
	}
}

func TestTimeline_DaysFlooredAtZero(t *testing.T) {
	card := testCard()
	card.PaymentDueOffsetDays = 0

	tl, err := Timeline(card, date(2026, time.September, 20))
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}

	if tl.CurrentCycle.DaysUntilClose != 0 {
		t.Errorf("DaysUntilClose = %d, want 0", tl.CurrentCycle.DaysUntilClose)
	}
	if tl.CurrentCycle.DaysUntilPayment != 0 {
		t.Errorf("DaysUntilPayment = %d, want 0", tl.CurrentCycle.DaysUntilPayment)
	}
}

func TestFloatDays_JumpsAfterStatementCloses(t *testing.T) {
	card := testCard()
	statement := date(2026, time.September, 20)

	before := FloatDays(card, statement.AddDate(0, 0, -1))
	after := FloatDays(card, statement.AddDate(0, 0, 1))

	// Float shrinks approaching the close, then jumps by a full cycle the
	// day after: the discontinuity is the whole point.
	if before >= after {
		t.Errorf("float before close = %d, after close = %d; want a jump upward", before, after)
	}

	if want := 11; before != want {
		t.Errorf("float the day before close = %d, want %d", before, want)
	}
	// Sep 21 purchase settles on the Oct 20 statement due Oct 30.
	if want := 39; after != want {
		t.Errorf("float the day after close = %d, want %d", after, want)
	}
}

func TestFloatDays_MonotonicWithinCycle(t *testing.T) {
	card := testCard()

	prev := FloatDays(card, date(2026, time.August, 21))
	for d := date(2026, time.August, 22); !d.After(date(2026, time.September, 20)); d = d.AddDate(0, 0, 1) {
		got := FloatDays(card, d)
		if got >= prev {
			t.Fatalf("float did not decrease within cycle at %v: %d -> %d", d, prev, got)
		}
		prev = got
	}
}

func TestTimeline_BestPurchaseWindow(t *testing.T) {
	tl, err := Timeline(testCard(), date(2026, time.September, 10))
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}

	best := tl.Timeline.BestPurchaseWindow
	if want := date(2026, time.September, 21); !best.Start.Equal(want) {
		t.Errorf("window start = %v, want %v", best.Start, want)
	}
	if want := date(2026, time.October, 20); !best.End.Equal(want) {
		t.Errorf("window end = %v, want %v", best.End, want)
	}
	if want := FloatDays(testCard(), best.Start); best.FloatDays != want {
		t.Errorf("window float = %d, want %d", best.FloatDays, want)
	}
}

func TestTimeline_IfBuyToday(t *testing.T) {
	ref := date(2026, time.September, 10)
	tl, err := Timeline(testCard(), ref)
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}

	if want := FloatDays(testCard(), ref); tl.FloatCalculator.IfBuyToday.FloatDays != want {
		t.Errorf("IfBuyToday.FloatDays = %d, want %d", tl.FloatCalculator.IfBuyToday.FloatDays, want)
	}
}

func TestTimeline_CyclePhases(t *testing.T) {
	// Cycle Aug 21 - Sep 20 is 31 days; a fifth of that is a 6-day band.
	tl, err := Timeline(testCard(), date(2026, time.September, 10))
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}

	phases := tl.Timeline.CyclePhases
	if len(phases) != 3 {
		t.Fatalf("got %d phases, want 3", len(phases))
	}

	wantOrder := []string{"optimal", "normal", "risky"}
	for i, phase := range phases {
		if phase.Phase != wantOrder[i] {
			t.Errorf("phase %d = %q, want %q", i, phase.Phase, wantOrder[i])
		}
		if phase.Description == "" {
			t.Errorf("phase %q has empty description", phase.Phase)
		}
	}

	if want := "Ago 21 - Ago 26"; phases[0].DateRange != want {
		t.Errorf("optimal range = %q, want %q", phases[0].DateRange, want)
	}
	if want := "Ago 27 - Sep 14"; phases[1].DateRange != want {
		t.Errorf("normal range = %q, want %q", phases[1].DateRange, want)
	}
	if want := "Sep 15 - Sep 20"; phases[2].DateRange != want {
		t.Errorf("risky range = %q, want %q", phases[2].DateRange, want)
	}
}

func TestTimeline_InvalidConfiguration(t *testing.T) {
	card := testCard()
	card.StatementDay = 0
	if _, err := Timeline(card, date(2026, time.September, 10)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("statement day 0: error = %v, want ErrInvalidConfiguration", err)
	}

	card = testCard()
	card.PaymentDueOffsetDays = -1
	if _, err := Timeline(card, date(2026, time.September, 10)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("negative offset: error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestAvailableCredit(t *testing.T) {
	card := testCard()
	if want := decimal.NewFromInt(3500); !card.AvailableCredit().Equal(want) {
		t.Errorf("AvailableCredit = %s, want %s", card.AvailableCredit(), want)
	}
}
