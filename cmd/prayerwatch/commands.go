package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"

	"github.com/nateberkopec/prayerwatch/internal/app"
	"github.com/nateberkopec/prayerwatch/internal/config"
	"github.com/nateberkopec/prayerwatch/internal/location"
	"github.com/nateberkopec/prayerwatch/internal/logging"
	"github.com/nateberkopec/prayerwatch/internal/persistence"
	"github.com/nateberkopec/prayerwatch/internal/prayer"
	"github.com/nateberkopec/prayerwatch/internal/webclient"
)

var (
	configPath   string
	envFile      string
	locationFlag string
	remindersArg string
	mute         bool
	noCache      bool
	logFile      string
	logLevel     string

	globalFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to the INI configuration file",
			Value:       config.DefaultPath,
			Destination: &configPath,
		},
		cli.StringFlag{
			Name:        "env-file",
			Usage:       "dotenv file loaded before reading the environment",
			Value:       ".env",
			Destination: &envFile,
		},
		cli.StringFlag{
			Name:        "location, l",
			Usage:       `override the location: "auto", "lat,lng" or a place name`,
			Destination: &locationFlag,
		},
		cli.StringFlag{
			Name:        "reminders, r",
			Usage:       "override lead times, comma separated minutes (e.g. 10,5)",
			Destination: &remindersArg,
		},
		cli.BoolFlag{
			Name:        "mute, m",
			Usage:       "show notifications without sound",
			Destination: &mute,
		},
		cli.BoolFlag{
			Name:        "no-cache",
			Usage:       "always fetch the schedule instead of reusing today's cache",
			Destination: &noCache,
		},
		cli.StringFlag{
			Name:        "log-file",
			Usage:       `log file to append to, "-" for stderr (default: XDG state dir)`,
			Destination: &logFile,
		},
		cli.StringFlag{
			Name:        "log-level",
			Usage:       "minimum log level",
			Value:       "info",
			Destination: &logLevel,
		},
	}
)

func newApp() *cli.App {
	var logCloser io.Closer

	a := cli.NewApp()
	a.Name = "prayerwatch"
	a.Usage = "desktop notifications at daily prayer times"
	a.UsageText = "prayerwatch [global options] [command]"
	a.Version = version
	a.Flags = globalFlags
	a.Before = func(*cli.Context) error {
		path := logFile
		if path == "" {
			var err error
			if path, err = logging.DefaultFile(); err != nil {
				return err
			}
		}
		closer, err := logging.Setup(path, logLevel)
		if err != nil {
			return err
		}
		logCloser = closer
		log.Info().Str("version", version).Msg("App initiating")
		return config.LoadDotEnv(envFile)
	}
	a.After = func(*cli.Context) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	}
	a.Action = run
	a.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "check the schedule every second and raise notifications (default)",
			Action: run,
		},
		{
			Name:    "dashboard",
			Aliases: []string{"d"},
			Usage:   "interactive view of today's schedule with notifications",
			Action:  dashboard,
		},
		{
			Name:    "today",
			Aliases: []string{"t"},
			Usage:   "print today's prayer times and exit",
			Action:  today,
		},
		{
			Name:   "history",
			Usage:  "print recently delivered notifications",
			Action: history,
			Flags: []cli.Flag{
				cli.IntFlag{Name: "n", Value: 20, Usage: "number of entries"},
			},
		},
	}
	return a
}

func loadSettings() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if locationFlag != "" {
		cfg.Location = locationFlag
	}
	if remindersArg != "" {
		minutes, invalid := config.ParseReminders(remindersArg)
		if len(invalid) > 0 {
			return config.Config{}, fmt.Errorf("invalid --reminders entries: %v", invalid)
		}
		cfg.ReminderMinutes = minutes
	}
	if mute {
		cfg.Sound = false
	}
	return cfg, nil
}

func newPlanner() *app.Planner {
	web := webclient.New()
	var store *persistence.Store
	if !noCache {
		s, err := persistence.DefaultStore()
		if err != nil {
			log.Warn().Err(err).Msg("schedule cache disabled")
		} else {
			store = s
		}
	}
	return app.NewPlanner(app.PlannerConfig{
		Settings: loadSettings,
		NewResolver: func(apiKey string) app.LocationResolver {
			return location.NewResolver(web, apiKey, location.Endpoints{})
		},
		Fetcher: prayer.NewClient(web, ""),
		Store:   store,
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func run(_ *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	err := app.NewRunner(newPlanner(), app.NewDesktopNotifier()).Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("stopping")
		return err
	}
	log.Info().Msg("App stopped")
	return nil
}

func dashboard(_ *cli.Context) error {
	model := app.New(app.Config{
		Planner:  newPlanner(),
		Notifier: app.NewDesktopNotifier(),
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return model.Err()
}

func today(_ *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	planner := newPlanner()
	plan, err := planner.Prepare(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to prepare prayer times")
		return err
	}
	return printSchedule(os.Stdout, plan, planner.Now())
}

func printSchedule(w io.Writer, plan *app.Plan, now time.Time) error {
	schedule := plan.Watcher.Schedule()
	fmt.Fprintf(w, "%s  %s\n\n", schedule.Date, schedule.Location)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	next, _, hasNext := schedule.Next(now)
	for _, entry := range schedule.Entries {
		marker := ""
		if hasNext && entry.Name == next.Name {
			marker = "<- next"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Name, entry.At, marker)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if leads := plan.Watcher.Leads(); len(leads) > 0 {
		fmt.Fprintf(w, "\nreminders: %v minutes before\n", leads)
	}
	return nil
}

func history(c *cli.Context) error {
	store, err := persistence.DefaultStore()
	if err != nil {
		return err
	}
	entries, err := store.LoadHistory()
	if err != nil {
		return err
	}
	n := c.Int("n")
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	for _, entry := range entries {
		fmt.Printf("%s  %-8s %s\n", entry.FiredAt.Local().Format("2006-01-02 15:04:05"), entry.Title, entry.Message)
	}
	return nil
}
