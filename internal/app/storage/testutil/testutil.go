package testutil

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
)

var dbID atomic.Int64

// New creates and returns a database in memory for tests.
// Important: This variant is not suitable for DB code that runs in goroutines.
func New() (*sql.DB, *storage.Storage, Factory) {
	// A shared cache keeps the in-memory database alive across pooled connections.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_fk=on", dbID.Add(1))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		panic(err)
	}
	if err := storage.ApplySchema(db); err != nil {
		panic(err)
	}
	st := storage.New(db, db)
	factory := NewFactory(st, db)
	return db, st, factory
}

// TruncateTables will purge data from all tables. This is meant for tests.
func TruncateTables(dbRW *sql.DB) {
	_, err := dbRW.Exec("PRAGMA foreign_keys = 0")
	if err != nil {
		panic(err)
	}
	rows, err := dbRW.Query(`SELECT name FROM sqlite_master WHERE type = "table"`)
	if err != nil {
		panic(err)
	}
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			panic(err)
		}
		tables = append(tables, name)
	}
	for _, n := range tables {
		if _, err := dbRW.Exec(fmt.Sprintf("DELETE FROM %s;", n)); err != nil {
			panic(err)
		}
	}
	for _, n := range tables {
		if _, err := dbRW.Exec(fmt.Sprintf("DELETE FROM SQLITE_SEQUENCE WHERE name='%s'", n)); err != nil {
			panic(err)
		}
	}
	if _, err := dbRW.Exec("PRAGMA foreign_keys = 1"); err != nil {
		panic(err)
	}
}
