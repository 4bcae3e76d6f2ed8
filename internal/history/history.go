// Package history keeps dispatched alerts in a local sqlite database so
// operators can query recent alerts without parsing the NDJSON log.
package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/securedep/watchdog/internal/alert"
	"github.com/securedep/watchdog/internal/wderr"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:watchdog.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Init creates the schema if it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			ts TEXT NOT NULL,
			environment TEXT NOT NULL,
			severity TEXT NOT NULL,
			metric TEXT NOT NULL,
			message TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save records one dispatched alert. Alerts are never updated.
func (s *Store) Save(ctx context.Context, a alert.Dispatched) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}

	metric := a.Metric
	if metric == "" {
		metric = "general"
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, ts, environment, severity, metric, message, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Timestamp.UTC().Format(time.RFC3339Nano),
		a.Environment,
		string(a.Type),
		metric,
		a.Message,
		string(payload),
	)
	return err
}

// Recent returns up to limit alerts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]alert.Dispatched, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM alerts ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []alert.Dispatched
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}

		var a alert.Dispatched
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Channel adapts the store into a notification channel.
type Channel struct {
	Store *Store
}

func (c Channel) Name() string {
	return "history"
}

func (c Channel) Send(ctx context.Context, a alert.Dispatched) error {
	if err := c.Store.Save(ctx, a); err != nil {
		return wderr.New(wderr.ErrChannel, err, "history")
	}
	return nil
}
