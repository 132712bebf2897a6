package db

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	maxOpenConns = 50
	maxIdleConns = 10
	connMaxLife  = 15 * time.Minute
)

// MustConnect opens the Postgres pool, runs pending migrations and
// panics on any failure; the credential store and match archive are not
// optional.
func MustConnect(databaseURL, migrationDir string) *sql.DB {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		panic(err)
	}
	if err := conn.Ping(); err != nil {
		panic(err)
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(connMaxLife)

	mustMigrate(conn, migrationDir)
	return conn
}

func mustMigrate(conn *sql.DB, migrationDir string) {
	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		panic(err)
	}
	m, err := migrate.NewWithDatabaseInstance(migrationDir, "postgres", driver)
	if err != nil {
		panic(err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return
		}
		panic(err)
	}
	log.Println("migrations applied")
}
