package engine

import (
	"fmt"
	"time"
)

// BillingCycleConfig is a user's custom monthly cycle configuration. The
// start day is clamped to shorter months when resolving. NextOverrideDate is
// a one-time replacement for the next computed cycle start; the caller is
// responsible for clearing it after it has been consumed.
type BillingCycleConfig struct {
	StartDay         int        `json:"start_day"`
	NextOverrideDate *time.Time `json:"next_override_date,omitempty"`
}

// CycleWindow is the inclusive date range of one billing cycle. Windows for
// consecutive cycles tile the calendar: EndDate is always the day before the
// next cycle's StartDate.
type CycleWindow struct {
	CycleName string    `json:"cycle_name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

var monthNames = map[time.Month]string{
	time.January:   "Enero",
	time.February:  "Febrero",
	time.March:     "Marzo",
	time.April:     "Abril",
	time.May:       "Mayo",
	time.June:      "Junio",
	time.July:      "Julio",
	time.August:    "Agosto",
	time.September: "Septiembre",
	time.October:   "Octubre",
	time.November:  "Noviembre",
	time.December:  "Diciembre",
}

var monthAbbrev = map[time.Month]string{
	time.January:   "Ene",
	time.February:  "Feb",
	time.March:     "Mar",
	time.April:     "Abr",
	time.May:       "May",
	time.June:      "Jun",
	time.July:      "Jul",
	time.August:    "Ago",
	time.September: "Sep",
	time.October:   "Oct",
	time.November:  "Nov",
	time.December:  "Dic",
}

// ResolveCycle computes the billing cycle window containing the reference
// date. The cycle starts on the configured day of the reference month,
// clamped to the month's length; if the reference day falls before that, the
// cycle began the previous month instead. A cycle is named after the month
// its end date falls in, not the month it opens in.
//
// When NextOverrideDate is set and lies inside a window adjacent to the
// resolved one, the boundary between those two cycles moves to the override
// date: the earlier cycle ends the day before it and the later one starts on
// it. Cycles beyond that single boundary follow the normal start-day rule.
func ResolveCycle(cfg BillingCycleConfig, referenceDate time.Time) (CycleWindow, error) {
	if cfg.StartDay < 1 || cfg.StartDay > 31 {
		return CycleWindow{}, fmt.Errorf("%w: start day %d outside [1,31]", ErrInvalidConfiguration, cfg.StartDay)
	}

	ref := dateOnly(referenceDate)

	start := clampedDate(ref.Year(), ref.Month(), cfg.StartDay)
	if ref.Before(start) {
		start = clampedDate(ref.Year(), ref.Month()-1, cfg.StartDay)
	}
	next := clampedDate(start.Year(), start.Month()+1, cfg.StartDay)
	end := next.AddDate(0, 0, -1)

	if cfg.NextOverrideDate != nil {
		override := dateOnly(*cfg.NextOverrideDate)
		upcomingEnd := clampedDate(next.Year(), next.Month()+1, cfg.StartDay).AddDate(0, 0, -1)

		switch {
		case !override.Before(next) && !override.After(upcomingEnd):
			// Override replaces the start of the upcoming cycle, so the
			// current window stretches until the day before it.
			end = override.AddDate(0, 0, -1)
		case override.After(start) && !override.After(end):
			// Override replaces the start of the cycle the reference date
			// falls in under the normal rule.
			if ref.Before(override) {
				start = clampedDate(start.Year(), start.Month()-1, cfg.StartDay)
				end = override.AddDate(0, 0, -1)
			} else {
				start = override
			}
		}
	}

	return CycleWindow{
		CycleName: monthNames[end.Month()],
		StartDate: start,
		EndDate:   end,
	}, nil
}

// UpdateCycleConfig validates and applies a configuration change. The
// previous configuration is returned untouched on error.
func UpdateCycleConfig(current BillingCycleConfig, newStartDay int, override *time.Time) (BillingCycleConfig, error) {
	if newStartDay < 1 || newStartDay > 31 {
		return current, fmt.Errorf("%w: start day %d outside [1,31]", ErrInvalidConfiguration, newStartDay)
	}

	updated := BillingCycleConfig{StartDay: newStartDay}
	if override != nil {
		d := dateOnly(*override)
		updated.NextOverrideDate = &d
	}
	return updated, nil
}
