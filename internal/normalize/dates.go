package normalize

import (
	"strings"
	"time"
)

// Common date formats found in claim exports.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Timestamp formats that carry a time of day alongside the date.
var dateTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Service time formats; 24-hour forms first.
var timeFormats = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3:04pm",
	"03:04 PM",
}

// ParseDate attempts to parse a date string in multiple common formats,
// with or without a time of day. Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, fmt := range dateFormats {
		if t, err := time.Parse(fmt, s); err == nil {
			return &t
		}
	}
	return ParseDateTime(s)
}

// ParseDateTime parses only timestamp forms that include a time of day.
// Offsets are converted to UTC.
func ParseDateTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, fmt := range dateTimeFormats {
		if t, err := time.Parse(fmt, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ParseClock parses a time-of-day string into an offset from midnight,
// seconds included. ok is false if the input is empty or unparseable.
func ParseClock(s string) (clock time.Duration, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, fmt := range timeFormats {
		if t, err := time.Parse(fmt, s); err == nil {
			return clockOf(t), true
		}
	}
	return 0, false
}

// ServiceClock resolves a claim's time of day: the service time first, then
// a time embedded in the service date. ok is false when neither carries one.
func ServiceClock(date, clock string) (time.Duration, bool) {
	if c, ok := ParseClock(clock); ok {
		return c, true
	}
	if t := ParseDateTime(date); t != nil {
		return clockOf(*t), true
	}
	return 0, false
}

func clockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}
