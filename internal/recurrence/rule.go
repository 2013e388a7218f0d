// Package recurrence implements the compact repeat-rule dialect used by
// pet reminders: semicolon-separated KEY=VALUE pairs where only FREQ
// (DAILY, WEEKLY, MONTHLY) and INTERVAL are interpreted.
//
// The dialect is permissive. Unknown keys (BYDAY, COUNT,
// UNTIL, ...) are ignored, and a missing, non-numeric, or non-positive
// INTERVAL falls back to 1. A missing or unknown FREQ makes the whole
// rule unparseable, which callers treat as "not recurring" rather than
// as an error a user ever sees.
package recurrence

import (
	"strconv"
	"strings"
)

// Frequency is the unit a rule advances by.
type Frequency string

const (
	FreqDaily   Frequency = "DAILY"
	FreqWeekly  Frequency = "WEEKLY"
	FreqMonthly Frequency = "MONTHLY"
)

// Rule is a parsed repeat rule.
type Rule struct {
	Freq     Frequency
	Interval int
}

// Parse parses a compact repeat-rule string like "FREQ=DAILY;INTERVAL=2".
// Keys and values are case-insensitive. It returns ok=false when no
// usable FREQ is present; callers must treat that as non-recurring.
func Parse(raw string) (Rule, bool) {
	var rule Rule

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return rule, false
	}

	interval := 1
	var freq Frequency
	found := false

	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(kv[0]))
		value := strings.ToUpper(strings.TrimSpace(kv[1]))

		switch key {
		case "FREQ":
			switch Frequency(value) {
			case FreqDaily, FreqWeekly, FreqMonthly:
				freq = Frequency(value)
				found = true
			}
		case "INTERVAL":
			// Bad intervals coerce to 1 instead of failing
			// the parse.
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				interval = n
			}
		}
	}

	if !found {
		return rule, false
	}

	rule.Freq = freq
	rule.Interval = interval
	return rule, true
}
