package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nateberkopec/prayerwatch/internal/config"
	"github.com/nateberkopec/prayerwatch/internal/location"
	"github.com/nateberkopec/prayerwatch/internal/persistence"
	"github.com/nateberkopec/prayerwatch/internal/prayer"
	"github.com/nateberkopec/prayerwatch/internal/watch"
)

// LocationResolver and ScheduleFetcher capture the subset of client
// functionality the planner needs, so tests can stub the network.
type LocationResolver interface {
	Resolve(ctx context.Context, raw string) (location.Location, error)
}

type ScheduleFetcher interface {
	Fetch(ctx context.Context, loc location.Location, now time.Time) (prayer.Schedule, error)
}

// Plan is one day's worth of work: the settings it was built from and the
// watcher over that day's schedule.
type Plan struct {
	Settings config.Config
	Watcher  *watch.Watcher
}

// Planner builds a Plan for the current day: it reloads settings, then
// reuses the same-day cache or resolves the location and fetches a fresh
// schedule.
type Planner struct {
	settings    func() (config.Config, error)
	newResolver func(apiKey string) LocationResolver
	fetcher     ScheduleFetcher
	store       *persistence.Store
	now         func() time.Time
}

// PlannerConfig wires the planner's collaborators. Store may be nil to
// disable caching; Now defaults to time.Now.
type PlannerConfig struct {
	Settings    func() (config.Config, error)
	NewResolver func(apiKey string) LocationResolver
	Fetcher     ScheduleFetcher
	Store       *persistence.Store
	Now         func() time.Time
}

// NewPlanner creates a planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newResolver := cfg.NewResolver
	if newResolver == nil {
		newResolver = func(apiKey string) LocationResolver {
			return location.NewResolver(nil, apiKey, location.Endpoints{})
		}
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = prayer.NewClient(nil, "")
	}
	settings := cfg.Settings
	if settings == nil {
		settings = func() (config.Config, error) { return config.Load(config.DefaultPath) }
	}
	return &Planner{
		settings:    settings,
		newResolver: newResolver,
		fetcher:     fetcher,
		store:       cfg.Store,
		now:         now,
	}
}

// Prepare builds today's plan, using the cache when it matches.
func (p *Planner) Prepare(ctx context.Context) (*Plan, error) {
	return p.prepare(ctx, true)
}

// Refresh builds today's plan from the network, ignoring the cache but
// keeping its record of fired alerts.
func (p *Planner) Refresh(ctx context.Context) (*Plan, error) {
	return p.prepare(ctx, false)
}

// Now returns the planner's clock reading.
func (p *Planner) Now() time.Time {
	return p.now()
}

// Store returns the cache store, which may be nil.
func (p *Planner) Store() *persistence.Store {
	return p.store
}

func (p *Planner) prepare(ctx context.Context, useCache bool) (*Plan, error) {
	settings, err := p.settings()
	if err != nil {
		return nil, err
	}
	now := p.now()

	var fired []string
	if p.store != nil {
		cached, keys, ok, err := p.store.LoadToday(settings.Location, now)
		if err != nil {
			log.Warn().Err(err).Msg("ignoring unreadable schedule cache")
		}
		if ok {
			fired = keys
			if useCache {
				log.Info().Str("date", cached.Date).Msg("Prayer time loaded from cache")
				return p.plan(settings, cached, fired), nil
			}
		}
	}

	loc, err := p.newResolver(settings.GeocodeAPIKey).Resolve(ctx, settings.Location)
	if err != nil {
		return nil, err
	}
	log.Info().Str("location", loc.String()).Msg("Location resolved")

	schedule, err := p.fetcher.Fetch(ctx, loc, now)
	if err != nil {
		return nil, err
	}

	plan := p.plan(settings, schedule, fired)
	p.Save(plan)
	return plan, nil
}

func (p *Planner) plan(settings config.Config, schedule prayer.Schedule, fired []string) *Plan {
	w := watch.NewWatcher(schedule, settings.ReminderMinutes)
	w.ImportState(fired)
	return &Plan{Settings: settings, Watcher: w}
}

// Save writes the plan's schedule and fired alerts to the cache. Failures
// are logged.
func (p *Planner) Save(plan *Plan) {
	if p.store == nil || plan == nil {
		return
	}
	if err := p.store.SaveToday(plan.Settings.Location, plan.Watcher.Schedule(), plan.Watcher.ExportState()); err != nil {
		log.Warn().Err(err).Msg("failed to cache schedule")
	}
}
