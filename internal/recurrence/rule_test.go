package recurrence

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("basic daily rule", func(t *testing.T) {
		rule, ok := Parse("FREQ=DAILY;INTERVAL=2")
		require.True(t, ok)
		assert.Equal(t, FreqDaily, rule.Freq)
		assert.Equal(t, 2, rule.Interval)
	})

	t.Run("keys and values are case-insensitive", func(t *testing.T) {
		rule, ok := Parse("freq=weekly;interval=3")
		require.True(t, ok)
		assert.Equal(t, FreqWeekly, rule.Freq)
		assert.Equal(t, 3, rule.Interval)
	})

	t.Run("missing interval defaults to 1", func(t *testing.T) {
		rule, ok := Parse("FREQ=MONTHLY")
		require.True(t, ok)
		assert.Equal(t, FreqMonthly, rule.Freq)
		assert.Equal(t, 1, rule.Interval)
	})

	t.Run("non-numeric interval coerces to 1", func(t *testing.T) {
		rule, ok := Parse("FREQ=DAILY;INTERVAL=abc")
		require.True(t, ok)
		assert.Equal(t, 1, rule.Interval)
	})

	t.Run("non-positive interval coerces to 1", func(t *testing.T) {
		for _, raw := range []string{"FREQ=DAILY;INTERVAL=0", "FREQ=DAILY;INTERVAL=-5"} {
			rule, ok := Parse(raw)
			require.True(t, ok, raw)
			assert.Equal(t, 1, rule.Interval, raw)
		}
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		rule, ok := Parse("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO;COUNT=10;UNTIL=20991231")
		require.True(t, ok)
		assert.Equal(t, FreqWeekly, rule.Freq)
		assert.Equal(t, 2, rule.Interval)
	})

	t.Run("whitespace tolerated", func(t *testing.T) {
		rule, ok := Parse(" FREQ = DAILY ; INTERVAL = 4 ")
		require.True(t, ok)
		assert.Equal(t, FreqDaily, rule.Freq)
		assert.Equal(t, 4, rule.Interval)
	})

	t.Run("unparseable rules", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"garbage",
			"FREQ=HOURLY",
			"FREQ=YEARLY;INTERVAL=1",
			"INTERVAL=2",
			";;;",
		} {
			_, ok := Parse(raw)
			assert.False(t, ok, "expected parse failure for %q", raw)
		}
	})
}

func TestNext(t *testing.T) {
	anchor := time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)

	t.Run("daily adds interval days", func(t *testing.T) {
		for _, n := range []int{1, 2, 10} {
			next, ok := Next(anchor, "FREQ=DAILY;INTERVAL="+strconv.Itoa(n))
			require.True(t, ok)
			assert.Equal(t, anchor.AddDate(0, 0, n), next)
		}
	})

	t.Run("weekly adds seven times interval days", func(t *testing.T) {
		for _, n := range []int{1, 3} {
			next, ok := Next(anchor, "FREQ=WEEKLY;INTERVAL="+strconv.Itoa(n))
			require.True(t, ok)
			assert.Equal(t, anchor.AddDate(0, 0, 7*n), next)
		}
	})

	t.Run("monthly preserves day of month", func(t *testing.T) {
		next, ok := Next(anchor, "FREQ=MONTHLY;INTERVAL=1")
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, time.April, 15, 9, 30, 0, 0, time.UTC), next)
	})

	t.Run("monthly overflows past short months", func(t *testing.T) {
		// 2026 is not a leap year: Jan 31 + 1 month normalizes to Mar 3.
		jan31 := time.Date(2026, time.January, 31, 8, 0, 0, 0, time.UTC)
		next, ok := Next(jan31, "FREQ=MONTHLY;INTERVAL=1")
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC), next)

		// Leap year: Jan 31 2028 + 1 month lands on Mar 2.
		leap := time.Date(2028, time.January, 31, 8, 0, 0, 0, time.UTC)
		next, ok = Next(leap, "FREQ=MONTHLY;INTERVAL=1")
		require.True(t, ok)
		assert.Equal(t, time.Date(2028, time.March, 2, 8, 0, 0, 0, time.UTC), next)
	})

	t.Run("result is strictly after the anchor", func(t *testing.T) {
		for _, raw := range []string{"FREQ=DAILY", "FREQ=WEEKLY", "FREQ=MONTHLY;INTERVAL=6"} {
			next, ok := Next(anchor, raw)
			require.True(t, ok)
			assert.True(t, next.After(anchor), raw)
		}
	})

	t.Run("empty and unparseable rules yield no occurrence", func(t *testing.T) {
		_, ok := Next(anchor, "")
		assert.False(t, ok)
		_, ok = Next(anchor, "garbage")
		assert.False(t, ok)
	})
}
