package recurrence

import "time"

// Next computes the occurrence after anchor according to the raw rule.
// It returns ok=false when the rule is empty or unparseable, so an
// unusable rule degrades to "no recurrence" instead of an error.
//
// Month arithmetic uses time.AddDate overflow semantics: advancing
// Jan 31 by one month lands on Mar 3 (Mar 2 in leap years) rather than
// clamping to the end of February. Day-of-month is preserved whenever
// the target month has it.
func Next(anchor time.Time, raw string) (time.Time, bool) {
	rule, ok := Parse(raw)
	if !ok {
		return time.Time{}, false
	}

	switch rule.Freq {
	case FreqDaily:
		return anchor.AddDate(0, 0, rule.Interval), true
	case FreqWeekly:
		return anchor.AddDate(0, 0, 7*rule.Interval), true
	case FreqMonthly:
		return anchor.AddDate(0, rule.Interval, 0), true
	}

	return time.Time{}, false
}
