package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nateberkopec/prayerwatch/internal/persistence"
	"github.com/nateberkopec/prayerwatch/internal/watch"
)

// TickInterval is how often the loop compares the clock with the schedule.
const TickInterval = time.Second

// Runner is the headless notification loop.
type Runner struct {
	planner  *Planner
	notifier Notifier
	interval time.Duration
}

// NewRunner creates a runner. A nil notifier uses desktop notifications.
func NewRunner(planner *Planner, notifier Notifier) *Runner {
	if notifier == nil {
		notifier = NewDesktopNotifier()
	}
	return &Runner{
		planner:  planner,
		notifier: notifier,
		interval: TickInterval,
	}
}

// Run prepares today's plan and checks it every tick until ctx is done. When
// the date rolls over the whole cycle starts again. Fetch failures end the
// run with an error; cancellation ends it cleanly.
func (r *Runner) Run(ctx context.Context) error {
	for {
		plan, err := r.planner.Prepare(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		log.Info().
			Str("date", plan.Watcher.Schedule().Date).
			Ints("reminders", plan.Watcher.Leads()).
			Msg("Prayer time set. App is running")

		err = r.loop(ctx, plan)
		if errors.Is(err, watch.ErrStale) {
			log.Warn().Err(err).Msg("Date not match")
			continue
		}
		return err
	}
}

func (r *Runner) loop(ctx context.Context, plan *Plan) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.tick(plan); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			r.planner.Save(plan)
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Runner) tick(plan *Plan) error {
	alerts, err := plan.Watcher.Due(r.planner.Now())
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}
	for _, alert := range alerts {
		deliver(r.notifier, r.planner, alert, plan.Settings.Sound)
	}
	r.planner.Save(plan)
	return nil
}

// deliver shows alert and records it in the history. Failures are logged so
// that a broken notification backend never stops the loop.
func deliver(n Notifier, planner *Planner, alert watch.Alert, sound bool) {
	log.Info().
		Str("prayer", alert.Prayer).
		Int("lead", alert.Lead).
		Str("message", alert.Message()).
		Msg("notification")

	if err := n.Notify(alert.Title(), alert.Message(), sound); err != nil {
		log.Error().Err(err).Str("prayer", alert.Prayer).Msg("failed to show notification")
	}
	store := planner.Store()
	if store == nil {
		return
	}
	entry := persistence.HistoryEntry{
		Title:   alert.Title(),
		Message: alert.Message(),
		FiredAt: planner.Now(),
	}
	if err := store.AppendHistory(entry); err != nil {
		log.Warn().Err(err).Msg("failed to record notification history")
	}
}
