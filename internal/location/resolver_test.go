package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nateberkopec/prayerwatch/internal/webclient"
)

const geocodeJakarta = `{
  "data": [
    {
      "latitude": -6.2088,
      "longitude": 106.8456,
      "name": "Jakarta",
      "country": "Indonesia",
      "country_code": "IDN",
      "country_module": {"global": {"alpha2": "ID", "alpha3": "IDN"}}
    }
  ]
}`

func TestParseGeocode(t *testing.T) {
	loc, err := ParseGeocode([]byte(geocodeJakarta))
	if err != nil {
		t.Fatalf("ParseGeocode returned error: %v", err)
	}
	want := Location{CountryCode: "ID", CountryName: "Indonesia", City: "Jakarta", Latitude: -6.2088, Longitude: 106.8456}
	if loc != want {
		t.Fatalf("unexpected location: %#v", loc)
	}
	if loc.Coordinates() != "-6.2088,106.8456" {
		t.Fatalf("unexpected coordinates %q", loc.Coordinates())
	}
}

func TestParseGeocodeErrors(t *testing.T) {
	cases := map[string]string{
		"api error":  `{"error": {"code": "invalid_access_key", "message": "You have not supplied a valid API Access Key."}}`,
		"empty data": `{"data": []}`,
		"no city":    `{"data": [{"country": "Indonesia"}]}`,
	}
	for name, body := range cases {
		if _, err := ParseGeocode([]byte(body)); !errors.Is(err, ErrNoMatch) {
			t.Errorf("%s: expected ErrNoMatch, got %v", name, err)
		}
	}
	if _, err := ParseGeocode([]byte("<html>")); err == nil {
		t.Error("expected error for non-JSON payload")
	}
}

func TestParseIPGeo(t *testing.T) {
	loc, err := ParseIPGeo([]byte(`{"ip":"203.0.113.7","city":"Istanbul","country_name":"Turkey","country_code":"TR","latitude":41.0082,"longitude":28.9784}`))
	if err != nil {
		t.Fatalf("ParseIPGeo returned error: %v", err)
	}
	if !loc.complete() || loc.City != "Istanbul" || loc.CountryCode != "TR" {
		t.Fatalf("unexpected location: %#v", loc)
	}

	_, err = ParseIPGeo([]byte(`{"error": true, "reason": "RateLimited"}`))
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestResolvePlaceUsesForwardGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forward" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "Jakarta" || r.URL.Query().Get("access_key") != "secret" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(geocodeJakarta))
	}))
	defer srv.Close()

	r := NewResolver(webclient.New(), "secret", Endpoints{Geocode: srv.URL})
	loc, err := r.Resolve(context.Background(), "Jakarta")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if loc.CountryCode != "ID" {
		t.Fatalf("unexpected location: %#v", loc)
	}
}

func TestResolveCoordinatesUsesReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "-6.2088,106.8456" {
			t.Errorf("unexpected reverse query %q", got)
		}
		w.Write([]byte(geocodeJakarta))
	}))
	defer srv.Close()

	r := NewResolver(webclient.New(), "secret", Endpoints{Geocode: srv.URL})
	if _, err := r.Resolve(context.Background(), "-6.2088, 106.8456"); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
}

func TestResolveAutoUsesIPGeolocation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ip", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.7"}`))
	})
	mux.HandleFunc("/geo/203.0.113.7/json/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"city":"Istanbul","country_name":"Turkey","country_code":"TR","latitude":41.0082,"longitude":28.9784}`))
	})
	mux.HandleFunc("/geocode/", func(w http.ResponseWriter, r *http.Request) {
		t.Error("complete ip record should not be geocoded")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewResolver(webclient.New(), "secret", Endpoints{
		IP:      srv.URL + "/ip",
		IPGeo:   srv.URL + "/geo",
		Geocode: srv.URL + "/geocode",
	})
	loc, err := r.Resolve(context.Background(), "auto")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if loc.City != "Istanbul" || loc.Coordinates() != "41.0082,28.9784" {
		t.Fatalf("unexpected location: %#v", loc)
	}
}

func TestResolveAutoGeocodesIncompleteRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ip", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.7"}`))
	})
	mux.HandleFunc("/geo/203.0.113.7/json/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"city":"Jakarta"}`))
	})
	mux.HandleFunc("/geocode/forward", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "Jakarta" {
			t.Errorf("expected the ip city to be geocoded, got %q", r.URL.Query().Get("query"))
		}
		w.Write([]byte(geocodeJakarta))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewResolver(webclient.New(), "secret", Endpoints{
		IP:      srv.URL + "/ip",
		IPGeo:   srv.URL + "/geo",
		Geocode: srv.URL + "/geocode",
	})
	loc, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if loc.CountryCode != "ID" {
		t.Fatalf("unexpected location: %#v", loc)
	}
}
