package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condition gates a calculation rule on a named numeric driver falling
// inside an inclusive range, optionally restricted to weekdays. Bounds are
// decimals because operators enter them with up to two decimal places and
// boundary comparisons must be exact.
type Condition struct {
	Driver   string          `json:"driver"`
	Min      decimal.Decimal `json:"min"`
	Max      decimal.Decimal `json:"max"`
	Weekdays []time.Weekday  `json:"weekdays,omitempty"`
}

func (c *Condition) clone() *Condition {
	cp := *c
	cp.Weekdays = append([]time.Weekday(nil), c.Weekdays...)
	return &cp
}

// Validate checks structural consistency of the condition.
func (c Condition) Validate() error {
	if c.Driver == "" {
		return NewValidationError("condition.driver", "driver name is required")
	}
	if c.Max.LessThan(c.Min) {
		return NewValidationError("condition.max", "max is below min")
	}
	for _, wd := range c.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return NewValidationError("condition.weekdays", "unknown weekday")
		}
	}
	return nil
}

// DriverSnapshot carries the daily operational drivers a rule is evaluated
// against: named numeric values (occupancy, checkouts, stay-overs, ...) and
// the target weekday.
type DriverSnapshot struct {
	Values  map[string]decimal.Decimal `json:"values"`
	Weekday time.Weekday               `json:"weekday"`
}

// Matches decides whether the condition is satisfied by the snapshot.
// A missing driver value is a non-match, never an error: evaluation is
// total and side-effect free. Bounds are inclusive on both ends.
func (c *Condition) Matches(snap DriverSnapshot) bool {
	if c == nil {
		return true
	}
	value, ok := snap.Values[c.Driver]
	if !ok {
		return false
	}
	if value.LessThan(c.Min) || value.GreaterThan(c.Max) {
		return false
	}
	if len(c.Weekdays) == 0 {
		return true
	}
	for _, wd := range c.Weekdays {
		if wd == snap.Weekday {
			return true
		}
	}
	return false
}
