package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations.sql
var migrationsSQL string

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Open opens (or creates) the SQLite database at path and migrates it.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	conn.SetMaxOpenConns(1)
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return conn, nil
}
