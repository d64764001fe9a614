package prayer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nateberkopec/prayerwatch/internal/location"
	"github.com/nateberkopec/prayerwatch/internal/webclient"
)

// DefaultSourceURL is the page the daily times are scraped from.
const DefaultSourceURL = "https://prayer-times.muslimpro.com/en/find"

// Client fetches daily schedules from the prayer times page.
type Client struct {
	web       *webclient.Client
	sourceURL string
}

// NewClient creates a schedule client. An empty sourceURL uses the default.
func NewClient(web *webclient.Client, sourceURL string) *Client {
	if web == nil {
		web = webclient.New()
	}
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	return &Client{web: web, sourceURL: sourceURL}
}

// Fetch scrapes the schedule for loc and stamps it with now's date.
func (c *Client) Fetch(ctx context.Context, loc location.Location, now time.Time) (Schedule, error) {
	params := map[string]string{
		"country_code": loc.CountryCode,
		"country_name": loc.CountryName,
		"city_name":    loc.City,
		"coordinates":  loc.Coordinates(),
	}
	body, err := c.web.GetBody(ctx, c.sourceURL, params)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed getting prayer time: %w", err)
	}

	raw, err := ScrapeTimes(bytes.NewReader(body))
	if err != nil {
		return Schedule{}, fmt.Errorf("failed getting prayer time: %w", err)
	}
	schedule, err := NewSchedule(now, loc.String(), raw)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed getting prayer time: %w", err)
	}

	log.Info().Str("date", schedule.Date).Int("entries", len(schedule.Entries)).Msg("Prayer time scraped")
	return schedule, nil
}
