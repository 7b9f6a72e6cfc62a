// Package storage keeps an append-only journal of game transitions. The
// journal is an audit trail: nothing is ever loaded back into a live game.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

var ErrUnsupportedDatabase = errors.New("UNSUPPORTED_DATABASE: Expected a postgres:// or sqlite3:// URL")

// Event is one broadcast transition.
type Event struct {
	GameID        string
	Seq           int
	Transition    string
	Round         int
	CurrentPlayer string
	LogHead       string
	CreatedAt     time.Time
}

// Journal records events without blocking the caller.
type Journal interface {
	Record(ev Event)
	Close() error
}

// NopJournal is used when no database is configured.
type NopJournal struct{}

func (NopJournal) Record(Event) {}

func (NopJournal) Close() error { return nil }

type dialect struct {
	goose  string
	driver string
	insert string
	events string
	prune  string
}

var postgresDialect = dialect{
	goose:  "postgres",
	driver: "pgx",
	insert: `INSERT INTO game_events (game_id, seq, transition, round, current_player, log_head, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	events: `SELECT game_id, seq, transition, round, current_player, log_head, created_at
		FROM game_events WHERE game_id = $1 ORDER BY seq`,
	prune: `DELETE FROM game_events WHERE created_at < $1`,
}

var sqliteDialect = dialect{
	goose:  "sqlite3",
	driver: "sqlite3",
	insert: `INSERT INTO game_events (game_id, seq, transition, round, current_player, log_head, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
	events: `SELECT game_id, seq, transition, round, current_player, log_head, created_at
		FROM game_events WHERE game_id = ? ORDER BY seq`,
	prune: `DELETE FROM game_events WHERE created_at < ?`,
}

// dialectFor picks the driver from the URL scheme and returns the DSN that
// driver expects.
func dialectFor(url string) (dialect, string, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgresDialect, url, nil
	case strings.HasPrefix(url, "sqlite3://"):
		return sqliteDialect, strings.TrimPrefix(url, "sqlite3://"), nil
	case strings.HasPrefix(url, "file:"):
		return sqliteDialect, url, nil
	}
	return dialect{}, "", ErrUnsupportedDatabase
}

// SQLJournal writes events from a background goroutine fed by a bounded
// queue. A full queue drops the event and logs it.
type SQLJournal struct {
	db      *sql.DB
	dialect dialect
	events  chan Event
	done    chan struct{}
	closed  bool
	mu      sync.RWMutex
}

// Open connects, applies migrations and starts the writer.
func Open(ctx context.Context, url string, buffer int) (*SQLJournal, error) {
	d, dsn, err := dialectFor(url)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach journal database: %w", err)
	}
	if err := migrate(ctx, db, d); err != nil {
		db.Close()
		return nil, err
	}

	j := &SQLJournal{
		db:      db,
		dialect: d,
		events:  make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go j.run()
	return j, nil
}

// migrate applies the embedded migrations for the dialect using goose
func migrate(ctx context.Context, db *sql.DB, d dialect) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations/"+d.goose); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Printf("Journal migrations applied (%s)", d.goose)
	return nil
}

func (j *SQLJournal) run() {
	defer close(j.done)
	for ev := range j.events {
		if err := j.Append(context.Background(), ev); err != nil {
			log.Printf("Journal write failed for game %s #%d: %v", ev.GameID, ev.Seq, err)
		}
	}
}

func (j *SQLJournal) Record(ev Event) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}

	select {
	case j.events <- ev:
	default:
		log.Printf("Journal queue full, dropping %s for game %s #%d", ev.Transition, ev.GameID, ev.Seq)
	}
}

// Close flushes queued events and closes the database.
func (j *SQLJournal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.events)
	j.mu.Unlock()

	<-j.done
	return j.db.Close()
}

// Append writes one event synchronously.
func (j *SQLJournal) Append(ctx context.Context, ev Event) error {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, j.dialect.insert,
		ev.GameID,
		ev.Seq,
		ev.Transition,
		ev.Round,
		ev.CurrentPlayer,
		ev.LogHead,
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Events returns a game's journal in sequence order.
func (j *SQLJournal) Events(ctx context.Context, gameID string) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, j.dialect.events, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for game %s: %w", gameID, err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.GameID, &ev.Seq, &ev.Transition, &ev.Round, &ev.CurrentPlayer, &ev.LogHead, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

// Prune deletes events older than the retention window and returns how many
// rows went.
func (j *SQLJournal) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC()

	result, err := j.db.ExecContext(ctx, j.dialect.prune, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check prune result: %w", err)
	}
	return deleted, nil
}
