package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/nateberkopec/prayerwatch/internal/watch"
)

type statusKind int

const (
	statusNeutral statusKind = iota
	statusError
	statusSuccess
)

type statusMessage struct {
	text    string
	kind    statusKind
	expires time.Time
}

// Config wires external dependencies for the dashboard.
type Config struct {
	Planner  *Planner
	Notifier Notifier
}

// Model implements the Bubble Tea dashboard. It runs the same per-second
// check as the headless runner and renders today's schedule.
type Model struct {
	planner  *Planner
	notifier Notifier

	plan     *Plan
	sound    bool
	fetching bool
	err      error

	width  int
	height int

	spin   spinner.Model
	status statusMessage

	lastAlert string
}

// New creates a Bubble Tea model for the dashboard.
func New(cfg Config) *Model {
	planner := cfg.Planner
	if planner == nil {
		planner = NewPlanner(PlannerConfig{})
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NewDesktopNotifier()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Ellipsis))

	return &Model{
		planner:  planner,
		notifier: notifier,
		sound:    true,
		fetching: true,
		spin:     sp,
	}
}

// Err reports the failure that ended the program, if any.
func (m *Model) Err() error {
	return m.err
}

// Init satisfies the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	spinCmd := func() tea.Msg { return m.spin.Tick() }
	return tea.Batch(prepareCmd(m.planner, false), m.scheduleTick(), spinCmd)
}

// Update drives the Bubble Tea state machine.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.maybeExpireStatus()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	case planReadyMsg:
		m.fetching = false
		m.absorbPlan(msg.Plan)
		return m, nil
	case planErrMsg:
		m.fetching = false
		m.err = msg.Err
		log.Error().Err(msg.Err).Msg("failed to prepare prayer times")
		return m, tea.Quit
	case tickMsg:
		return m, tea.Batch(m.scheduleTick(), m.check(m.planner.Now()))
	}

	return m, nil
}

// View renders the TUI.
func (m *Model) View() string {
	return renderView(m)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d", "q":
		m.planner.Save(m.plan)
		return m, tea.Quit
	case "s":
		m.sound = !m.sound
		if m.sound {
			m.setStatus("Sound enabled", statusSuccess)
		} else {
			m.setStatus("Sound muted", statusNeutral)
		}
	case "r":
		if m.fetching {
			return m, nil
		}
		m.fetching = true
		m.setStatus("Refreshing prayer times", statusNeutral)
		return m, prepareCmd(m.planner, true)
	}
	return m, nil
}

func (m *Model) absorbPlan(plan *Plan) {
	m.plan = plan
	m.sound = plan.Settings.Sound
	schedule := plan.Watcher.Schedule()
	log.Info().Str("date", schedule.Date).Msg("Prayer time set. App is running")
	m.setStatus(fmt.Sprintf("Prayer times for %s loaded", schedule.Date), statusSuccess)
}

// check runs one tick of the watcher. A stale schedule triggers a fresh
// prepare for the new day.
func (m *Model) check(now time.Time) tea.Cmd {
	if m.plan == nil {
		return nil
	}
	alerts, err := m.plan.Watcher.Due(now)
	if errors.Is(err, watch.ErrStale) {
		log.Warn().Err(err).Msg("Date not match")
		m.plan = nil
		m.fetching = true
		m.setStatus("New day, fetching prayer times", statusNeutral)
		return prepareCmd(m.planner, false)
	}
	if err != nil {
		m.setStatus(err.Error(), statusError)
		return nil
	}
	if len(alerts) == 0 {
		return nil
	}

	m.lastAlert = alerts[len(alerts)-1].Message()
	m.setStatus(m.lastAlert, statusSuccess)
	m.planner.Save(m.plan)
	return notifyCmd(m.notifier, m.planner, alerts, m.sound)
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(TickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *Model) setStatus(text string, kind statusKind) {
	if text == "" {
		m.status = statusMessage{}
		return
	}
	m.status = statusMessage{
		text:    text,
		kind:    kind,
		expires: m.planner.Now().Add(10 * time.Second),
	}
}

func (m *Model) maybeExpireStatus() {
	if m.status.text == "" {
		return
	}
	if m.planner.Now().After(m.status.expires) {
		m.status = statusMessage{}
	}
}

type tickMsg struct{}

type planReadyMsg struct {
	Plan *Plan
}

type planErrMsg struct {
	Err error
}

func prepareCmd(planner *Planner, refresh bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		var (
			plan *Plan
			err  error
		)
		if refresh {
			plan, err = planner.Refresh(ctx)
		} else {
			plan, err = planner.Prepare(ctx)
		}
		if err != nil {
			return planErrMsg{Err: err}
		}
		return planReadyMsg{Plan: plan}
	}
}

func notifyCmd(n Notifier, planner *Planner, alerts []watch.Alert, sound bool) tea.Cmd {
	return func() tea.Msg {
		for _, alert := range alerts {
			deliver(n, planner, alert, sound)
		}
		return nil
	}
}
