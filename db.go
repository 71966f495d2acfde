package main

import (
	"database/sql"
	"embed"
	"log/slog"
	"os"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var db *sql.DB

func initDB(dsn string) {
	var err error
	db, err = sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("error connecting to the database", "error", err)
		os.Exit(1)
	}
	if err = db.Ping(); err != nil {
		slog.Error("cannot reach the database", "error", err)
		os.Exit(1)
	}

	goose.SetBaseFS(migrationsFS)
	if err = goose.SetDialect("postgres"); err != nil {
		slog.Error("error setting migration dialect", "error", err)
		os.Exit(1)
	}
	if err = goose.Up(db, "migrations"); err != nil {
		slog.Error("error applying migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("database connection established")
}
