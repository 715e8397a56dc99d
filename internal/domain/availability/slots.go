package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Working day grid: half-hour steps from 10:00 up to, not including, 20:00.
const (
	StartHour   = 10
	EndHour     = 20
	StepMinutes = 30
)

const DateLayout = "2006-01-02"

// GenerateDailySlots returns the zero-padded HH:MM grid, 10:00 .. 19:30.
func GenerateDailySlots() []string {
	slots := make([]string, 0, (EndHour-StartHour)*60/StepMinutes)
	for m := StartHour * 60; m < EndHour*60; m += StepMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

// OnGrid reports whether an already normalized time is a grid slot.
func OnGrid(hhmm string) bool {
	for _, s := range GenerateDailySlots() {
		if s == hhmm {
			return true
		}
	}
	return false
}

// NormalizeTime turns "9:00" or " 09:00" into "09:00".
func NormalizeTime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	h, m, ok := strings.Cut(raw, ":")
	if !ok {
		return "", fmt.Errorf("time %q: expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || len(h) > 2 || hour < 0 || hour > 23 {
		return "", fmt.Errorf("time %q: bad hour", raw)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("time %q: bad minute", raw)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// NormalizeDate accepts YYYY-MM-DD, including unpadded month/day, and
// returns the canonical form.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(DateLayout, raw); err == nil {
		return d.Format(DateLayout), nil
	}
	d, err := time.Parse("2006-1-2", raw)
	if err != nil {
		return "", fmt.Errorf("date %q: expected YYYY-MM-DD", raw)
	}
	return d.Format(DateLayout), nil
}

// Today returns the calendar day of now as YYYY-MM-DD.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}
