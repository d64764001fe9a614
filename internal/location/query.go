package location

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies how a configured location string should be resolved.
type Kind int

const (
	KindAuto Kind = iota
	KindCoordinates
	KindPlace
)

// Query is a parsed location setting.
type Query struct {
	Kind      Kind
	Place     string
	Latitude  float64
	Longitude float64
	Raw       string
}

func (q Query) String() string {
	switch q.Kind {
	case KindCoordinates:
		return fmt.Sprintf("coordinates %s", formatCoordinates(q.Latitude, q.Longitude))
	case KindPlace:
		return fmt.Sprintf("place %q", q.Place)
	default:
		return "auto"
	}
}

// ParseQuery interprets the location setting. "auto" or an empty value means
// IP geolocation, "lat,lng" is taken as coordinates and anything else is a
// place name to geocode.
func ParseQuery(raw string) Query {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "auto") {
		return Query{Kind: KindAuto, Raw: raw}
	}
	if lat, lng, ok := parseCoordinates(raw); ok {
		return Query{Kind: KindCoordinates, Latitude: lat, Longitude: lng, Raw: raw}
	}
	return Query{Kind: KindPlace, Place: raw, Raw: raw}
}

func parseCoordinates(raw string) (float64, float64, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

func formatCoordinates(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
