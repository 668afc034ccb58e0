// Package audit keeps a durable trail of every command the daemon ran
// against the module and every station lifecycle event it observed.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/events"
	"github.com/espwifi/wifid/internal/log"
)

// Store writes audit rows to SQLite. It implements dispatch.Recorder.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, logger: log.WithComponent("audit")}
}

// Record persists one terminal command record. Failures are logged, not
// propagated: the command already completed and its outcome was already
// delivered to the caller.
func (s *Store) Record(ctx context.Context, rec dispatch.Record) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_log (id, kind, status, error, latency_ms, submitted_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.Status, rec.Error,
		rec.Latency.Milliseconds(),
		rec.SubmittedAt.Format(time.RFC3339Nano),
		rec.CompletedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		s.logger.Error("failed to write command record", "id", rec.ID, "error", err)
	}
}

// Entry is one command_log row as served to API clients.
type Entry struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	LatencyMS   int64  `json:"latency_ms"`
	SubmittedAt string `json:"submitted_at"`
	CompletedAt string `json:"completed_at"`
}

// Recent returns the last n command records, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, status, COALESCE(error, ''), latency_ms, submitted_at, completed_at
		 FROM command_log ORDER BY completed_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Status, &e.Error, &e.LatencyMS, &e.SubmittedAt, &e.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordStations consumes station events from the hub until ctx is
// cancelled, appending each to station_log. Run it as a goroutine next
// to the dispatcher.
func (s *Store) RecordStations(ctx context.Context, hub *events.Hub) {
	sub, cancel := hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch ev.Type {
			case events.TypeStationConnected, events.TypeStationDisconnected, events.TypeStationGotIP:
			default:
				continue
			}

			var se events.StationEvent
			if err := json.Unmarshal(ev.Data, &se); err != nil {
				s.logger.Warn("undecodable station event", "type", ev.Type, "error", err)
				continue
			}

			_, err := s.db.ExecContext(ctx,
				`INSERT INTO station_log (type, mac, ip, at) VALUES (?, ?, ?, ?)`,
				ev.Type, se.MAC, se.IP, ev.At.Format(time.RFC3339Nano))
			if err != nil && ctx.Err() == nil {
				s.logger.Error("failed to write station record", "error", err)
			}
		}
	}
}
