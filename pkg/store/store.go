// Package store keeps a history of advisories found by audit runs in a local
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/project-copacetic/nessus/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS advisories(
	run TEXT NOT NULL,
	host TEXT NOT NULL,
	os TEXT,
	ecosystem TEXT,
	old_version TEXT NOT NULL,
	new_version TEXT NOT NULL,
	severity INTEGER NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_advisories_host ON advisories(host);`

// Record is one stored advisory.
type Record struct {
	Run             string
	Host            string
	OperatingSystem string
	Advisory        types.Advisory
	Time            time.Time
}

type Store struct {
	db *sql.DB
}

// For testing.
var now = time.Now

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores every advisory of hosts under the run label, in one transaction.
func (s *Store) Save(ctx context.Context, run string, hosts []types.HostAdvisories) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO advisories(run, host, os, ecosystem, old_version, new_version, severity, ts) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := now().Unix()
	n := 0
	for _, h := range hosts {
		for _, a := range h.Advisories {
			if _, err := stmt.ExecContext(ctx, run, h.Host, h.OperatingSystem, a.Ecosystem, a.OldVersion, a.NewVersion, a.Severity, ts); err != nil {
				return fmt.Errorf("insert advisory for %s: %w", h.Host, err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Debugf("Stored %d advisories for run %q", n, run)
	return nil
}

// ListByHost returns the stored advisories of host, oldest first.
func (s *Store) ListByHost(ctx context.Context, host string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run, host, os, ecosystem, old_version, new_version, severity, ts FROM advisories WHERE host=? ORDER BY ts, rowid`, host)
	if err != nil {
		return nil, fmt.Errorf("query advisories: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r      Record
			osName sql.NullString
			eco    sql.NullString
			ts     int64
		)
		if err := rows.Scan(&r.Run, &r.Host, &osName, &eco, &r.Advisory.OldVersion, &r.Advisory.NewVersion, &r.Advisory.Severity, &ts); err != nil {
			return nil, fmt.Errorf("scan advisory: %w", err)
		}
		r.OperatingSystem = osName.String
		r.Advisory.Ecosystem = eco.String
		r.Time = time.Unix(ts, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}
