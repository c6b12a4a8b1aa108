// internal/domain/schedule/period.go
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Partition selects how trigger instants are grouped into periods for dedup.
type Partition string

const (
	PartitionWeekly  Partition = "WEEKLY"  // ISO week-year + week number
	PartitionMonthly Partition = "MONTHLY" // only within the first seven days of a month
	PartitionDaily   Partition = "DAILY"
)

// PeriodKey uniquely identifies one trigger period. Equal keys mean the same period.
type PeriodKey string

// Definition is the immutable schedule of one scheduler instance.
//
// The trigger window is one hour wide (HourUTC). PollInterval must not exceed
// an hour, otherwise a tick can step over the window entirely.
type Definition struct {
	PollInterval time.Duration
	Weekday      time.Weekday // anchor weekday, ignored when Daily is set
	Daily        bool         // every weekday is an anchor weekday
	HourUTC      int
	Partition    Partition
}

// Validate reports whether the definition can ever trigger.
func (d Definition) Validate() error {
	if d.PollInterval <= 0 || d.PollInterval > time.Hour {
		return fmt.Errorf("poll interval %s must be within (0, 1h]", d.PollInterval)
	}
	if d.HourUTC < 0 || d.HourUTC > 23 {
		return fmt.Errorf("anchor hour %d is out of range", d.HourUTC)
	}
	if d.Weekday < time.Sunday || d.Weekday > time.Saturday {
		return fmt.Errorf("anchor weekday %d is out of range", d.Weekday)
	}
	switch d.Partition {
	case PartitionWeekly, PartitionMonthly, PartitionDaily:
	default:
		return fmt.Errorf("unknown partition %q", d.Partition)
	}
	return nil
}

// Clock answers "is it time?" and "which period is this?" for a Definition.
// All calculations are done in UTC.
type Clock struct {
	def Definition
}

func NewClock(def Definition) Clock {
	return Clock{def: def}
}

func (c Clock) Definition() Definition {
	return c.def
}

// IsTriggerWindow is true iff now falls on an anchor weekday at the anchor hour.
// Monthly partitions additionally require the first seven days of the month.
func (c Clock) IsTriggerWindow(now time.Time) bool {
	now = now.UTC()
	if !c.def.Daily && now.Weekday() != c.def.Weekday {
		return false
	}
	if now.Hour() != c.def.HourUTC {
		return false
	}
	if c.def.Partition == PartitionMonthly && now.Day() > 7 {
		return false
	}
	return true
}

// PeriodKey returns the key of the period now belongs to. ok is false when the
// partition has no period at now (monthly outside days 1-7).
func (c Clock) PeriodKey(now time.Time) (PeriodKey, bool) {
	switch c.def.Partition {
	case PartitionMonthly:
		return MonthlyKey(now)
	case PartitionDaily:
		return DailyKey(now), true
	default:
		return WeeklyKey(now), true
	}
}

// WeeklyKey uses the ISO week-year, so the last days of December can belong
// to week 1 of the following year.
func WeeklyKey(now time.Time) PeriodKey {
	year, week := now.UTC().ISOWeek()
	return PeriodKey(fmt.Sprintf("%d-W%02d", year, week))
}

func MonthlyKey(now time.Time) (PeriodKey, bool) {
	now = now.UTC()
	if now.Day() > 7 {
		return "", false
	}
	return PeriodKey(fmt.Sprintf("%d-M%02d", now.Year(), int(now.Month()))), true
}

func DailyKey(now time.Time) PeriodKey {
	return PeriodKey(now.UTC().Format("2006-01-02"))
}

// ParseWeekday accepts english weekday names ("monday", "Mon").
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}
