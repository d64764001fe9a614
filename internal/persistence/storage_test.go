package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/nateberkopec/prayerwatch/internal/prayer"
)

var today = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewStore(fs, "/data/prayerwatch"), fs
}

func testSchedule(t *testing.T, day time.Time) prayer.Schedule {
	t.Helper()
	s, err := prayer.NewSchedule(day, "Jakarta, Indonesia", map[string]string{"Fajr": "04:35", "Dhuhr": "11:53"})
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}
	return s
}

func TestSaveLoadTodayRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	schedule := testSchedule(t, today)

	if err := store.SaveToday("auto", schedule, []string{"Fajr@10", "Fajr@0"}); err != nil {
		t.Fatalf("SaveToday failed: %v", err)
	}

	loaded, fired, ok, err := store.LoadToday("auto", today.Add(time.Hour))
	if err != nil {
		t.Fatalf("LoadToday failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cached schedule to be used on the same day")
	}
	if loaded.Date != schedule.Date || len(loaded.Entries) != 2 || loaded.Entries[1].At != schedule.Entries[1].At {
		t.Errorf("unexpected schedule %#v", loaded)
	}
	if len(fired) != 2 || fired[0] != "Fajr@10" {
		t.Errorf("unexpected fired keys %v", fired)
	}
}

func TestLoadTodayIgnoresOtherDay(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.SaveToday("auto", testSchedule(t, today), nil); err != nil {
		t.Fatalf("SaveToday failed: %v", err)
	}

	_, _, ok, err := store.LoadToday("auto", today.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("LoadToday failed: %v", err)
	}
	if ok {
		t.Fatal("expected yesterday's cache to be ignored")
	}
}

func TestLoadTodayIgnoresOtherLocation(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.SaveToday("Jakarta", testSchedule(t, today), nil); err != nil {
		t.Fatalf("SaveToday failed: %v", err)
	}

	_, _, ok, err := store.LoadToday("Istanbul", today)
	if err != nil {
		t.Fatalf("LoadToday failed: %v", err)
	}
	if ok {
		t.Fatal("expected cache for another location to be ignored")
	}
}

func TestLoadNonExistent(t *testing.T) {
	store, _ := newTestStore(t)
	_, _, ok, err := store.LoadToday("auto", today)
	if err != nil {
		t.Fatalf("LoadToday should not fail on missing file: %v", err)
	}
	if ok {
		t.Error("expected no cached schedule")
	}
}

func TestLoadTodayRejectsUnknownVersion(t *testing.T) {
	store, fs := newTestStore(t)
	if err := fs.MkdirAll("/data/prayerwatch", 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/data/prayerwatch/today.json", []byte(`{"version": 9}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := store.LoadToday("auto", today); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestSaveTodayLeavesNoTempFile(t *testing.T) {
	store, fs := newTestStore(t)
	if err := store.SaveToday("auto", testSchedule(t, today), nil); err != nil {
		t.Fatalf("SaveToday failed: %v", err)
	}
	if exists, _ := afero.Exists(fs, "/data/prayerwatch/today.json.tmp"); exists {
		t.Fatal("expected temp file to be renamed away")
	}
}

func TestHistoryAppendAndCap(t *testing.T) {
	store, _ := newTestStore(t)

	for i := 0; i < maxHistorySize+3; i++ {
		entry := HistoryEntry{Title: "Fajr", Message: "Fajr in 10 mins", FiredAt: today.Add(time.Duration(i) * time.Minute)}
		if err := store.AppendHistory(entry); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
	}

	entries, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(entries) != maxHistorySize {
		t.Fatalf("expected %d entries, got %d", maxHistorySize, len(entries))
	}
	if !entries[0].FiredAt.Equal(today.Add(3 * time.Minute)) {
		t.Errorf("expected oldest entries to be dropped, first is %v", entries[0].FiredAt)
	}
}

func TestDataDir(t *testing.T) {
	tmpDir := t.TempDir()
	os.Setenv("XDG_DATA_HOME", tmpDir)
	defer os.Unsetenv("XDG_DATA_HOME")

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "prayerwatch")
	if dir != expected {
		t.Errorf("expected path %s, got %s", expected, dir)
	}
}
