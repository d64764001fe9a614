package location

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/nateberkopec/prayerwatch/internal/webclient"
)

// ErrNoMatch is returned when a lookup service cannot place the query.
var ErrNoMatch = errors.New("location not found")

// Default service endpoints.
const (
	DefaultIPURL      = "https://api.ipify.org"
	DefaultIPGeoURL   = "https://ipapi.co"
	DefaultGeocodeURL = "http://api.positionstack.com/v1"
)

// Location carries the geographic details the prayer time source needs.
type Location struct {
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Coordinates formats the position as "lat,lng".
func (l Location) Coordinates() string {
	return formatCoordinates(l.Latitude, l.Longitude)
}

func (l Location) String() string {
	return fmt.Sprintf("%s, %s (%s)", l.City, l.CountryName, l.Coordinates())
}

func (l Location) complete() bool {
	return l.CountryCode != "" && l.CountryName != "" && l.City != "" &&
		(l.Latitude != 0 || l.Longitude != 0)
}

// Resolver turns a location setting into a Location.
type Resolver struct {
	web        *webclient.Client
	ipURL      string
	ipGeoURL   string
	geocodeURL string
	apiKey     string
}

// Endpoints overrides the service base URLs; empty fields keep the defaults.
type Endpoints struct {
	IP      string
	IPGeo   string
	Geocode string
}

// NewResolver creates a resolver. If apiKey is empty the
// PRAYERWATCH_GEOCODE_API_KEY environment variable is checked.
func NewResolver(web *webclient.Client, apiKey string, endpoints Endpoints) *Resolver {
	if web == nil {
		web = webclient.New()
	}
	if apiKey == "" {
		apiKey = os.Getenv("PRAYERWATCH_GEOCODE_API_KEY")
	}
	return &Resolver{
		web:        web,
		ipURL:      firstNonEmpty(endpoints.IP, DefaultIPURL),
		ipGeoURL:   strings.TrimRight(firstNonEmpty(endpoints.IPGeo, DefaultIPGeoURL), "/"),
		geocodeURL: strings.TrimRight(firstNonEmpty(endpoints.Geocode, DefaultGeocodeURL), "/"),
		apiKey:     apiKey,
	}
}

// Resolve looks up the location described by raw.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Location, error) {
	q := ParseQuery(raw)
	log.Debug().Str("query", q.String()).Msg("resolving location")

	switch q.Kind {
	case KindCoordinates:
		return r.geocode(ctx, "reverse", formatCoordinates(q.Latitude, q.Longitude))
	case KindPlace:
		return r.geocode(ctx, "forward", q.Place)
	default:
		loc, err := r.ipLocation(ctx)
		if err != nil {
			return Location{}, err
		}
		if loc.complete() {
			return loc, nil
		}
		if loc.City == "" {
			return Location{}, fmt.Errorf("ip geolocation: %w", ErrNoMatch)
		}
		return r.geocode(ctx, "forward", loc.City)
	}
}

func (r *Resolver) ipLocation(ctx context.Context) (Location, error) {
	var ip struct {
		IP string `json:"ip"`
	}
	if err := r.web.GetJSON(ctx, r.ipURL, map[string]string{"format": "json"}, &ip); err != nil {
		return Location{}, fmt.Errorf("failed getting ip address: %w", err)
	}
	if ip.IP == "" {
		return Location{}, fmt.Errorf("failed getting ip address: empty response")
	}

	body, err := r.web.GetBody(ctx, fmt.Sprintf("%s/%s/json/", r.ipGeoURL, ip.IP), nil)
	if err != nil {
		return Location{}, fmt.Errorf("failed getting location: %w", err)
	}
	loc, err := ParseIPGeo(body)
	if err != nil {
		return Location{}, fmt.Errorf("failed getting location: %w", err)
	}
	return loc, nil
}

func (r *Resolver) geocode(ctx context.Context, direction, query string) (Location, error) {
	params := map[string]string{
		"access_key":     r.apiKey,
		"query":          query,
		"country_module": "1",
		"limit":          "1",
	}
	body, err := r.web.GetBody(ctx, r.geocodeURL+"/"+direction, params)
	if err != nil {
		return Location{}, fmt.Errorf("failed getting geocode: %w", err)
	}
	loc, err := ParseGeocode(body)
	if err != nil {
		return Location{}, fmt.Errorf("failed getting geocode for %q: %w", query, err)
	}
	return loc, nil
}

// ParseIPGeo reads an ipapi.co style record.
func ParseIPGeo(body []byte) (Location, error) {
	if !gjson.ValidBytes(body) {
		return Location{}, fmt.Errorf("invalid ip geolocation payload")
	}
	res := gjson.ParseBytes(body)
	if res.Get("error").Bool() {
		return Location{}, fmt.Errorf("%w: %s", ErrNoMatch, res.Get("reason").String())
	}
	return Location{
		CountryCode: res.Get("country_code").String(),
		CountryName: res.Get("country_name").String(),
		City:        res.Get("city").String(),
		Latitude:    res.Get("latitude").Float(),
		Longitude:   res.Get("longitude").Float(),
	}, nil
}

// ParseGeocode reads the first match of a positionstack response.
func ParseGeocode(body []byte) (Location, error) {
	if !gjson.ValidBytes(body) {
		return Location{}, fmt.Errorf("invalid geocode payload")
	}
	res := gjson.ParseBytes(body)
	if apiErr := res.Get("error"); apiErr.Exists() {
		return Location{}, fmt.Errorf("%w: %s", ErrNoMatch, firstNonEmpty(apiErr.Get("message").String(), apiErr.Raw))
	}
	first := res.Get("data.0")
	if !first.Exists() || !first.IsObject() {
		return Location{}, ErrNoMatch
	}
	loc := Location{
		CountryCode: first.Get("country_module.global.alpha2").String(),
		CountryName: first.Get("country").String(),
		City:        firstNonEmpty(first.Get("name").String(), first.Get("locality").String()),
		Latitude:    first.Get("latitude").Float(),
		Longitude:   first.Get("longitude").Float(),
	}
	if loc.City == "" || loc.CountryName == "" {
		return Location{}, fmt.Errorf("%w: incomplete geocode result", ErrNoMatch)
	}
	return loc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
