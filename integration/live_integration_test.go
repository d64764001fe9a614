//go:build integration

package integration_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nateberkopec/prayerwatch/internal/location"
	"github.com/nateberkopec/prayerwatch/internal/prayer"
	"github.com/nateberkopec/prayerwatch/internal/webclient"
)

func TestResolveAutoLocation(t *testing.T) {
	web := webclient.New()
	resolver := location.NewResolver(web, "", location.Endpoints{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loc, err := resolver.Resolve(ctx, "auto")
	if err != nil {
		t.Fatalf("Resolve(auto) returned error: %v", err)
	}
	if loc.CountryCode == "" || loc.City == "" {
		t.Fatalf("expected country and city to be populated: %#v", loc)
	}
}

func TestFetchTodaysSchedule(t *testing.T) {
	web := webclient.New()
	loc := location.Location{
		CountryCode: "MY",
		CountryName: "Malaysia",
		City:        "Kuala Lumpur",
		Latitude:    3.139,
		Longitude:   101.6869,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	schedule, err := prayer.NewClient(web, "").Fetch(ctx, loc, now)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !schedule.ValidOn(now) {
		t.Fatalf("expected schedule for today, got %s", schedule.Date)
	}
	if len(schedule.Entries) != len(prayer.Names) {
		t.Fatalf("expected %d prayers, got %d: %#v", len(prayer.Names), len(schedule.Entries), schedule.Entries)
	}
}

func TestResolvePlaceWithGeocodeKey(t *testing.T) {
	key := os.Getenv("PRAYERWATCH_GEOCODE_API_KEY")
	if key == "" {
		t.Skip("PRAYERWATCH_GEOCODE_API_KEY not set")
	}
	resolver := location.NewResolver(webclient.New(), key, location.Endpoints{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loc, err := resolver.Resolve(ctx, "Jakarta")
	if err != nil {
		t.Fatalf("Resolve(Jakarta) returned error: %v", err)
	}
	if loc.CountryCode != "ID" {
		t.Fatalf("expected ID country code, got %#v", loc)
	}
}
