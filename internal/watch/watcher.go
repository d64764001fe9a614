package watch

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nateberkopec/prayerwatch/internal/prayer"
)

// ErrStale is returned once the wall clock has moved past the schedule date.
var ErrStale = errors.New("schedule date does not match current date")

// DefaultWindow is how long after its target instant an alert may still
// fire. Ticks are one second apart, so a late tick still catches it.
const DefaultWindow = time.Minute

// Alert is a notification for a prayer, either at its time (Lead == 0) or
// Lead minutes before it.
type Alert struct {
	Prayer string
	At     time.Time
	Lead   int
}

// FireAt is the instant the alert becomes due.
func (a Alert) FireAt() time.Time {
	return a.At.Add(-time.Duration(a.Lead) * time.Minute)
}

// Key identifies the alert within one day's schedule.
func (a Alert) Key() string {
	return a.Prayer + "@" + strconv.Itoa(a.Lead)
}

// Title is the notification heading.
func (a Alert) Title() string {
	return a.Prayer
}

// Message is the notification body.
func (a Alert) Message() string {
	if a.Lead == 0 {
		return fmt.Sprintf("%s time at %s", a.Prayer, a.At.Format("15:04:05"))
	}
	return fmt.Sprintf("%s in %d mins", a.Prayer, a.Lead)
}

// Watcher decides, tick by tick, which alerts of a single day's schedule are
// due. Every alert fires at most once.
type Watcher struct {
	schedule prayer.Schedule
	leads    []int
	window   time.Duration
	fired    map[string]struct{}
	order    []string
}

// NewWatcher creates a watcher for schedule with the given lead times in
// minutes. Non-positive and duplicate leads are ignored; the at-time alert is
// always included.
func NewWatcher(schedule prayer.Schedule, leads []int) *Watcher {
	clean := make([]int, 0, len(leads))
	for _, lead := range leads {
		if lead <= 0 || slices.Contains(clean, lead) {
			continue
		}
		clean = append(clean, lead)
	}
	slices.Sort(clean)
	slices.Reverse(clean)

	return &Watcher{
		schedule: schedule,
		leads:    clean,
		window:   DefaultWindow,
		fired:    make(map[string]struct{}),
	}
}

// SetWindow changes the catch-up window. Values below one second are raised
// to one second so that an on-time tick always fires.
func (w *Watcher) SetWindow(d time.Duration) {
	w.window = max(d, time.Second)
}

// Schedule returns the schedule being watched.
func (w *Watcher) Schedule() prayer.Schedule {
	return w.schedule
}

// Leads returns the lead times, largest first.
func (w *Watcher) Leads() []int {
	return slices.Clone(w.leads)
}

// Due returns the alerts that became due at now and marks them fired. It
// returns ErrStale when now is on a different date than the schedule.
func (w *Watcher) Due(now time.Time) ([]Alert, error) {
	if !w.schedule.ValidOn(now) {
		return nil, fmt.Errorf("%w: schedule %s, now %s", ErrStale, w.schedule.Date, now.Format(prayer.DateLayout))
	}

	now = now.Truncate(time.Second)
	var due []Alert
	for _, alert := range w.alerts(now.Location()) {
		if _, done := w.fired[alert.Key()]; done {
			continue
		}
		fireAt := alert.FireAt()
		if now.Before(fireAt) || !now.Before(fireAt.Add(w.window)) {
			continue
		}
		w.markFired(alert.Key())
		due = append(due, alert)
	}
	return due, nil
}

// Pending lists the alerts that have not fired yet and are still ahead of
// now, ordered by fire time.
func (w *Watcher) Pending(now time.Time) []Alert {
	var pending []Alert
	for _, alert := range w.alerts(now.Location()) {
		if _, done := w.fired[alert.Key()]; done {
			continue
		}
		if alert.FireAt().Add(w.window).After(now) {
			pending = append(pending, alert)
		}
	}
	slices.SortStableFunc(pending, func(a, b Alert) int {
		return a.FireAt().Compare(b.FireAt())
	})
	return pending
}

// Fired reports whether the alert with key has already fired.
func (w *Watcher) Fired(key string) bool {
	_, ok := w.fired[key]
	return ok
}

// ExportState returns the fired alert keys in firing order.
func (w *Watcher) ExportState() []string {
	return slices.Clone(w.order)
}

// ImportState restores fired alert keys, typically from the same-day cache.
func (w *Watcher) ImportState(keys []string) {
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		w.markFired(key)
	}
}

// alerts enumerates reminders (largest lead first) followed by the at-time
// alerts. Reminders that would fall before the schedule's midnight are
// dropped.
func (w *Watcher) alerts(loc *time.Location) []Alert {
	day, err := w.schedule.Day(loc)
	if err != nil {
		return nil
	}
	leads := append(w.Leads(), 0)
	out := make([]Alert, 0, len(leads)*len(w.schedule.Entries))
	for _, lead := range leads {
		for _, entry := range w.schedule.Entries {
			alert := Alert{Prayer: entry.Name, At: entry.At.On(day), Lead: lead}
			if alert.FireAt().Before(day) {
				continue
			}
			out = append(out, alert)
		}
	}
	return out
}

func (w *Watcher) markFired(key string) {
	if _, ok := w.fired[key]; ok {
		return
	}
	w.fired[key] = struct{}{}
	w.order = append(w.order, key)
}
