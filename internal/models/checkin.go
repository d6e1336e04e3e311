package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Stamp is a TickTick date encoded as the integer YYYYMMDD.
type Stamp int

// StampOf returns the stamp for the calendar day of t in t's location.
func StampOf(t time.Time) Stamp {
	return Stamp(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

// ParseStamp accepts an integer stamp, a numeric string or an ISO date.
func ParseStamp(v any) (Stamp, bool) {
	switch s := v.(type) {
	case float64:
		if s != float64(int(s)) {
			return 0, false
		}
		return Stamp(int(s)), true
	case int:
		return Stamp(s), true
	case json.Number:
		n, err := strconv.Atoi(s.String())
		if err != nil {
			return 0, false
		}
		return Stamp(n), true
	case string:
		s = strings.TrimSpace(s)
		if n, err := strconv.Atoi(s); err == nil {
			return Stamp(n), true
		}
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return StampOf(t), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Time returns midnight of the stamp's day in loc.
func (s Stamp) Time(loc *time.Location) time.Time {
	n := int(s)
	return time.Date(n/10000, time.Month(n/100%100), n%100, 0, 0, 0, 0, loc)
}

// AddDays shifts the stamp by whole calendar days.
func (s Stamp) AddDays(days int) Stamp {
	return StampOf(s.Time(time.UTC).AddDate(0, 0, days))
}

func (s Stamp) String() string {
	return strconv.Itoa(int(s))
}

// CheckinEntry is one dated record of progress against a habit.
type CheckinEntry struct {
	HabitID  string
	Stamp    Stamp
	HasStamp bool
	Value    *float64
	Goal     *float64
	Status   *int
	Unit     string
	Streak   *int
	Raw      map[string]any
}

func (e *CheckinEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*e = EntryFromFields(fields)
	return nil
}

func (e CheckinEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Raw)
}

// EntryFromFields builds an entry from a decoded check-in object.
func EntryFromFields(fields map[string]any) CheckinEntry {
	e := CheckinEntry{
		HabitID: stringField(fields["habitId"]),
		Value:   NumberValue(fields["value"]),
		Goal:    NumberValue(fields["goal"]),
		Unit:    stringField(fields["unit"]),
		Raw:     fields,
	}
	if stamp, ok := ParseStamp(fields["checkinStamp"]); ok {
		e.Stamp, e.HasStamp = stamp, true
	} else if stamp, ok := ParseStamp(fields["date"]); ok {
		e.Stamp, e.HasStamp = stamp, true
	}
	if status := NumberValue(fields["status"]); status != nil {
		n := int(*status)
		e.Status = &n
	}
	for _, key := range []string{"chainLength", "currentChain"} {
		if streak := NumberValue(fields[key]); streak != nil && *streak != 0 {
			n := int(*streak)
			e.Streak = &n
			break
		}
	}
	return e
}
