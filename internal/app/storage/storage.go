// Package storage implements persistent storage for the service with SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ErikKalkoken/structurewatch/internal/app"
)

// Storage provides access to all persisted objects.
//
// SQLite allows many concurrent reads, but only one concurrent write.
// Write related methods therefore use a dedicated handle
// which is limited to one connection.
type Storage struct {
	dbRO *sql.DB
	dbRW *sql.DB
}

// New returns a new Storage object.
func New(dbRO, dbRW *sql.DB) *Storage {
	st := &Storage{dbRO: dbRO, dbRW: dbRW}
	return st
}

// InitDB initializes the database and returns a read-only and a read-write handle to it.
func InitDB(dsn string) (dbRO *sql.DB, dbRW *sql.DB, err error) {
	dsn2 := dsn + "?_fk=on&_journal_mode=WAL&_synchronous=normal&_busy_timeout=5000"
	dbRW, err = sql.Open("sqlite3", dsn2)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", dsn, err)
	}
	dbRW.SetMaxOpenConns(1)
	if err := ApplySchema(dbRW); err != nil {
		return nil, nil, err
	}
	dbRO, err = sql.Open("sqlite3", dsn2)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", dsn, err)
	}
	return dbRO, dbRW, nil
}

// InitDBForTest returns a fully initialized storage for an in-memory database.
func InitDBForTest() (*Storage, error) {
	// A shared cache keeps the in-memory database alive across both handles.
	dsn := "file:test?mode=memory&cache=shared&_fk=on"
	dbRW, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	dbRW.SetMaxOpenConns(1)
	if err := ApplySchema(dbRW); err != nil {
		return nil, err
	}
	dbRO, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return New(dbRO, dbRW), nil
}

// ApplySchema creates all tables when they do not yet exist.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// convertGetError maps database errors to application errors.
func convertGetError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return app.ErrNotFound
	}
	return err
}

func jsonEncode[T any](v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %v: %w", v, err)
	}
	return string(b), nil
}

func jsonDecode[T any](s string) (T, error) {
	var v T
	if s == "" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return v, fmt.Errorf("decode %q: %w", s, err)
	}
	return v, nil
}

// transaction runs fn inside a read-write transaction.
func (st *Storage) transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := st.dbRW.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

var schema = `
CREATE TABLE IF NOT EXISTS eve_entities (
	id INTEGER PRIMARY KEY NOT NULL,
	category TEXT NOT NULL,
	name TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS eve_entities_idx_name ON eve_entities (name);
CREATE INDEX IF NOT EXISTS eve_entities_idx_category ON eve_entities (category);

CREATE TABLE IF NOT EXISTS eve_categories (
	id INTEGER PRIMARY KEY NOT NULL,
	is_published BOOL NOT NULL,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS eve_groups (
	id INTEGER PRIMARY KEY NOT NULL,
	eve_category_id INTEGER NOT NULL,
	is_published BOOL NOT NULL,
	name TEXT NOT NULL,
	FOREIGN KEY (eve_category_id) REFERENCES eve_categories (id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS eve_types (
	id INTEGER PRIMARY KEY NOT NULL,
	description TEXT NOT NULL,
	eve_group_id INTEGER NOT NULL,
	is_published BOOL NOT NULL,
	name TEXT NOT NULL,
	FOREIGN KEY (eve_group_id) REFERENCES eve_groups (id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS eve_regions (
	id INTEGER PRIMARY KEY NOT NULL,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS eve_constellations (
	id INTEGER PRIMARY KEY NOT NULL,
	eve_region_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	FOREIGN KEY (eve_region_id) REFERENCES eve_regions (id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS eve_solar_systems (
	id INTEGER PRIMARY KEY NOT NULL,
	eve_constellation_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	security_status REAL NOT NULL,
	FOREIGN KEY (eve_constellation_id) REFERENCES eve_constellations (id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS eve_planets (
	id INTEGER PRIMARY KEY NOT NULL,
	eve_solar_system_id INTEGER NOT NULL,
	eve_type_id INTEGER,
	name TEXT NOT NULL,
	FOREIGN KEY (eve_solar_system_id) REFERENCES eve_solar_systems (id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS eve_moons (
	id INTEGER PRIMARY KEY NOT NULL,
	eve_solar_system_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	FOREIGN KEY (eve_solar_system_id) REFERENCES eve_solar_systems (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS webhooks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	has_default_pings_enabled BOOL NOT NULL,
	is_active BOOL NOT NULL,
	is_default BOOL NOT NULL,
	language TEXT NOT NULL,
	name TEXT NOT NULL UNIQUE,
	notification_types TEXT NOT NULL,
	ping_groups TEXT NOT NULL,
	url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS owners (
	id INTEGER PRIMARY KEY NOT NULL,
	alliance_id INTEGER,
	character_id INTEGER,
	character_name TEXT NOT NULL,
	forwarding_sync_at DATETIME,
	forwarding_sync_error INTEGER NOT NULL,
	has_default_pings_enabled BOOL NOT NULL,
	is_alliance_main BOOL NOT NULL,
	is_up BOOL,
	notifications_sync_at DATETIME,
	notifications_sync_error INTEGER NOT NULL,
	ping_groups TEXT NOT NULL,
	structures_sync_at DATETIME,
	structures_sync_error INTEGER NOT NULL,
	webhook_ids TEXT NOT NULL,
	FOREIGN KEY (id) REFERENCES eve_entities (id),
	FOREIGN KEY (alliance_id) REFERENCES eve_entities (id)
);

CREATE TABLE IF NOT EXISTS structures (
	id INTEGER PRIMARY KEY NOT NULL,
	eve_moon_id INTEGER,
	eve_planet_id INTEGER,
	eve_solar_system_id INTEGER NOT NULL,
	eve_type_id INTEGER,
	fuel_expires DATETIME,
	last_online DATETIME,
	name TEXT NOT NULL,
	owner_id INTEGER NOT NULL,
	position_x REAL,
	position_y REAL,
	position_z REAL,
	reinforce_hour INTEGER,
	state INTEGER NOT NULL,
	state_timer_end DATETIME,
	unanchors_at DATETIME,
	webhook_ids TEXT NOT NULL,
	FOREIGN KEY (eve_moon_id) REFERENCES eve_moons (id),
	FOREIGN KEY (eve_planet_id) REFERENCES eve_planets (id),
	FOREIGN KEY (eve_solar_system_id) REFERENCES eve_solar_systems (id),
	FOREIGN KEY (eve_type_id) REFERENCES eve_types (id),
	FOREIGN KEY (owner_id) REFERENCES owners (id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS structures_idx_owner ON structures (owner_id);

CREATE TABLE IF NOT EXISTS notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	color_override INTEGER,
	is_read BOOL NOT NULL,
	is_sent BOOL NOT NULL,
	is_timer_added BOOL,
	notification_id INTEGER NOT NULL,
	owner_id INTEGER NOT NULL,
	ping_override INTEGER,
	sender_id INTEGER,
	text TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	type TEXT NOT NULL,
	FOREIGN KEY (owner_id) REFERENCES owners (id) ON DELETE CASCADE,
	FOREIGN KEY (sender_id) REFERENCES eve_entities (id),
	UNIQUE (notification_id, owner_id)
);
CREATE INDEX IF NOT EXISTS notifications_idx_owner_sent ON notifications (owner_id, is_sent);

CREATE TABLE IF NOT EXISTS fuel_alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	config_id INTEGER NOT NULL,
	hours INTEGER NOT NULL,
	structure_id INTEGER NOT NULL,
	FOREIGN KEY (structure_id) REFERENCES structures (id) ON DELETE CASCADE,
	UNIQUE (structure_id, config_id, hours)
);

CREATE TABLE IF NOT EXISTS jump_fuel_alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	config_id INTEGER NOT NULL,
	structure_id INTEGER NOT NULL,
	FOREIGN KEY (structure_id) REFERENCES structures (id) ON DELETE CASCADE,
	UNIQUE (structure_id, config_id)
);

CREATE TABLE IF NOT EXISTS structure_items (
	id INTEGER PRIMARY KEY NOT NULL,
	eve_type_id INTEGER NOT NULL,
	is_singleton BOOL NOT NULL,
	location_flag TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	structure_id INTEGER NOT NULL,
	FOREIGN KEY (eve_type_id) REFERENCES eve_types (id),
	FOREIGN KEY (structure_id) REFERENCES structures (id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS structure_items_idx_structure ON structure_items (structure_id);
`
