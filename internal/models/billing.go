package models

import "time"

// CycleConfig is a user's persisted billing cycle configuration. The
// override date applies to exactly one cycle start and is cleared by the
// service once a resolution has consumed it.
type CycleConfig struct {
	UserID           int64      `json:"user_id"`
	StartDay         int        `json:"start_day"`
	NextOverrideDate *time.Time `json:"next_override_date,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
