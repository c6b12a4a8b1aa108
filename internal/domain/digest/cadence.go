// internal/domain/digest/cadence.go
package digest

import (
	"strings"
	"time"
)

// Cadence is a recipient's chosen digest recurrence.
type Cadence string

const (
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
	CadenceMonthly  Cadence = "monthly"
	CadenceDisabled Cadence = "disabled"
)

// ParseCadence maps a stored preference to a Cadence. Empty or unknown values
// fall back to weekly, the default preference for new accounts.
func ParseCadence(s string) Cadence {
	switch Cadence(strings.ToLower(strings.TrimSpace(s))) {
	case CadenceBiweekly:
		return CadenceBiweekly
	case CadenceMonthly:
		return CadenceMonthly
	case CadenceDisabled:
		return CadenceDisabled
	default:
		return CadenceWeekly
	}
}

// LookbackDays is the metrics window covered by one digest of this cadence.
func (c Cadence) LookbackDays() int {
	switch c {
	case CadenceWeekly:
		return 7
	case CadenceBiweekly:
		return 14
	case CadenceMonthly:
		return 30
	default:
		return 0
	}
}

// Includes decides cohort membership for a trigger at now. It is pure.
//
//   - weekly: every trigger week
//   - biweekly: even ISO week numbers. After a 53-week year, W53 and the next
//     W01 are both odd, so biweekly recipients wait three weeks once.
//   - monthly: the first seven days of the month, i.e. the first anchor weekday
//   - disabled: never
func Includes(c Cadence, now time.Time) bool {
	now = now.UTC()
	switch c {
	case CadenceWeekly:
		return true
	case CadenceBiweekly:
		_, week := now.ISOWeek()
		return week%2 == 0
	case CadenceMonthly:
		return now.Day() <= 7
	default:
		return false
	}
}
