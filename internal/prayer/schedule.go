package prayer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical prayer names in the order they occur during the day.
const (
	Fajr    = "Fajr"
	Sunrise = "Sunrise"
	Dhuhr   = "Dhuhr"
	Asr     = "Asr"
	Maghrib = "Maghrib"
	Isha    = "Isha'a"
)

// Names lists the prayers a schedule tracks, in display order.
var Names = []string{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// DateLayout is the layout used to stamp and compare schedule dates.
const DateLayout = "2006-01-02"

// ErrNoTimes is returned when a source yields no prayer times at all.
var ErrNoTimes = errors.New("no prayer times found")

// Clock is a time of day with second resolution.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock accepts HH:MM or HH:MM:SS.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("invalid clock %q", s)
	}
	values := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Clock{}, fmt.Errorf("invalid clock %q: %w", s, err)
		}
		values[i] = n
	}
	c := Clock{Hour: values[0], Minute: values[1], Second: values[2]}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return Clock{}, fmt.Errorf("clock out of range %q", s)
	}
	return c, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// On returns the absolute instant of c on the given day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, c.Second, 0, day.Location())
}

// Entry is a single named point in the daily schedule.
type Entry struct {
	Name string `json:"name"`
	At   Clock  `json:"at"`
}

// Schedule holds one day's prayer times for a location.
type Schedule struct {
	Date     string  `json:"date"`
	Location string  `json:"location"`
	Entries  []Entry `json:"entries"`
}

// NewSchedule builds a schedule for day from scraped name/time pairs. Pairs
// whose name is not a tracked prayer are ignored, and tracked prayers missing
// from raw are left out.
func NewSchedule(day time.Time, location string, raw map[string]string) (Schedule, error) {
	s := Schedule{
		Date:     day.Format(DateLayout),
		Location: location,
	}
	for _, name := range Names {
		value, ok := raw[name]
		if !ok {
			continue
		}
		at, err := ParseClock(value)
		if err != nil {
			return Schedule{}, fmt.Errorf("%s: %w", name, err)
		}
		s.Entries = append(s.Entries, Entry{Name: name, At: at})
	}
	if len(s.Entries) == 0 {
		return Schedule{}, ErrNoTimes
	}
	return s, nil
}

// ValidOn reports whether the schedule belongs to now's calendar date.
func (s Schedule) ValidOn(now time.Time) bool {
	return s.Date == now.Format(DateLayout)
}

// Day returns midnight of the schedule date in loc.
func (s Schedule) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s.Date, loc)
}

// Next returns the first entry at or after now, with its absolute time.
func (s Schedule) Next(now time.Time) (Entry, time.Time, bool) {
	day, err := s.Day(now.Location())
	if err != nil {
		return Entry{}, time.Time{}, false
	}
	for _, entry := range s.Entries {
		at := entry.At.On(day)
		if !at.Before(now) {
			return entry, at, true
		}
	}
	return Entry{}, time.Time{}, false
}
