// Package storage persists decoded server states to SQLite so the proxy can
// expose a history of what it has seen.
package storage

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpsl/assets"
	"github.com/woozymasta/scpsl/pkg/scpsl"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Snapshot is one server's last decoded state together with bookkeeping of
// when and how often it was observed. Nil flag fields were never requested.
type Snapshot struct {
	// betteralign:ignore

	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	LastOnline   string    `json:"last_online,omitempty"`
	Info         string    `json:"info,omitempty"`
	FriendlyFire *bool     `json:"friendly_fire,omitempty"`
	Whitelist    *bool     `json:"whitelist,omitempty"`
	Modded       *bool     `json:"modded,omitempty"`
	Mods         *uint64   `json:"mods,omitempty"`
	ServerID     uint64    `json:"server_id"`
	Count        int64     `json:"count"`
	Players      uint32    `json:"players"`
	MaxPlayers   uint32    `json:"max_players"`
	Port         uint16    `json:"port"`
}

// FromServer flattens a decoded server record into a snapshot observed now.
func FromServer(srv scpsl.Server, now time.Time) Snapshot {
	snap := Snapshot{
		ServerID:     srv.ID,
		Port:         srv.Port,
		FriendlyFire: srv.FriendlyFire,
		Whitelist:    srv.Whitelist,
		Modded:       srv.Modded,
		Mods:         srv.Mods,
		FirstSeen:    now,
		LastSeen:     now,
	}

	if srv.Players != nil {
		snap.Players = srv.Players.Current
		snap.MaxPlayers = srv.Players.Max
	}
	if srv.Info != nil {
		snap.Info = *srv.Info
	}
	if srv.LastOnline != nil {
		snap.LastOnline = scpsl.FormatDate(*srv.LastOnline)
	}

	return snap
}

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters,
// and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// runMigrations applies the embedded schema files that have not been applied
// yet, in name order. Applied versions are tracked in schema_migrations.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME
	)`); err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	entries, err := assets.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := applyMigration(db, name); err != nil {
			return err
		}
	}

	return nil
}

// applyMigration runs one schema file and records it, both inside a single
// transaction. Already-recorded versions are skipped.
func applyMigration(db *sql.DB, name string) error {
	var applied int
	err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, name).Scan(&applied)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check migration %s: %w", name, err)
	}

	content, err := assets.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	log.Info().Str("version", name).Msg("Applying database migration")

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, name, time.Now()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}

	return tx.Commit()
}

// Upsert inserts a snapshot or folds it into the existing row for the same
// (server_id, port). Optional fields only overwrite when the new observation
// actually carries them.
func (r *Repository) Upsert(s Snapshot) error {
	query := `
	INSERT INTO snapshots (
		server_id, port, players, max_players, info,
		friendly_fire, whitelist, modded, mods, last_online,
		count, first_seen, last_seen
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	ON CONFLICT(server_id, port) DO UPDATE SET
		count = count + 1,
		last_seen = excluded.last_seen,
		players = excluded.players,

		max_players = CASE WHEN excluded.max_players > 0 THEN excluded.max_players ELSE snapshots.max_players END,
		info        = CASE WHEN excluded.info != '' THEN excluded.info ELSE snapshots.info END,
		last_online = CASE WHEN excluded.last_online != '' THEN excluded.last_online ELSE snapshots.last_online END,

		friendly_fire = COALESCE(excluded.friendly_fire, snapshots.friendly_fire),
		whitelist     = COALESCE(excluded.whitelist, snapshots.whitelist),
		modded        = COALESCE(excluded.modded, snapshots.modded),
		mods          = COALESCE(excluded.mods, snapshots.mods);
	`

	_, err := r.db.Exec(query,
		s.ServerID, s.Port, s.Players, s.MaxPlayers, s.Info,
		s.FriendlyFire, s.Whitelist, s.Modded, s.Mods, s.LastOnline,
		s.FirstSeen, s.LastSeen,
	)

	return err
}

// List retrieves all snapshots sorted by the last seen timestamp in
// descending order.
func (r *Repository) List() ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT server_id, port, players, max_players, info,
		       friendly_fire, whitelist, modded, mods, last_online,
		       count, first_seen, last_seen
		FROM snapshots
		ORDER BY last_seen DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(
			&s.ServerID, &s.Port, &s.Players, &s.MaxPlayers, &s.Info,
			&s.FriendlyFire, &s.Whitelist, &s.Modded, &s.Mods, &s.LastOnline,
			&s.Count, &s.FirstSeen, &s.LastSeen,
		); err != nil {
			continue
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// Get retrieves the snapshot of a specific server, or nil when unknown.
func (r *Repository) Get(serverID uint64, port uint16) (*Snapshot, error) {
	row := r.db.QueryRow(`
		SELECT server_id, port, players, max_players, info,
		       friendly_fire, whitelist, modded, mods, last_online,
		       count, first_seen, last_seen
		FROM snapshots
		WHERE server_id = ? AND port = ?
	`, serverID, port)

	var s Snapshot
	err := row.Scan(
		&s.ServerID, &s.Port, &s.Players, &s.MaxPlayers, &s.Info,
		&s.FriendlyFire, &s.Whitelist, &s.Modded, &s.Mods, &s.LastOnline,
		&s.Count, &s.FirstSeen, &s.LastSeen,
	)

	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// PruneBefore deletes snapshots not seen since the cutoff and reports how
// many rows went away.
func (r *Repository) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM snapshots WHERE last_seen < ?`, cutoff)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
