package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/events"
	"github.com/espwifi/wifid/internal/log"
	"github.com/espwifi/wifid/internal/storage"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR") // Suppress logs in tests
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	recs := []dispatch.Record{
		{ID: "a", Kind: "getAPMAC", Status: "succeeded", Latency: 12 * time.Millisecond},
		{ID: "b", Kind: "configureAP", Status: "failed", Error: "module replied ERROR", Latency: 40 * time.Millisecond},
		{ID: "c", Kind: "listStations", Status: "succeeded", Latency: 9 * time.Millisecond},
	}
	for i, rec := range recs {
		rec.SubmittedAt = base.Add(time.Duration(i) * time.Second)
		rec.CompletedAt = rec.SubmittedAt.Add(rec.Latency)
		s.Record(ctx, rec)
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("order = [%s, %s], want newest first [c, b]", got[0].ID, got[1].ID)
	}
	if got[1].Error != "module replied ERROR" {
		t.Fatalf("error column = %q", got[1].Error)
	}
}

func TestRecentDefaultLimit(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty trail, got %d entries", len(got))
	}
}

func TestRecordStations(t *testing.T) {
	s := newTestStore(t)
	hub := events.NewHub(16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.RecordStations(ctx, hub)

	// Let the consumer subscribe before publishing.
	time.Sleep(20 * time.Millisecond)

	hub.Publish(events.TypeStationConnected, events.StationEvent{MAC: "aa:bb:cc:dd:ee:01"})
	hub.Publish(events.TypeStationGotIP, events.StationEvent{MAC: "aa:bb:cc:dd:ee:01", IP: "192.168.4.100"})
	hub.Publish(events.TypeModuleReady, nil) // Not a station event; skipped.

	deadline := time.Now().Add(2 * time.Second)
	for {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM station_log").Scan(&n); err != nil {
			t.Fatalf("count station_log: %v", err)
		}
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("station_log has %d rows, want 2", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	var ip string
	err := s.db.QueryRow("SELECT ip FROM station_log WHERE type = ?", events.TypeStationGotIP).Scan(&ip)
	if err != nil {
		t.Fatalf("query got_ip row: %v", err)
	}
	if ip != "192.168.4.100" {
		t.Fatalf("ip = %q", ip)
	}
}
