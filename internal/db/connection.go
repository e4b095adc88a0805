package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/aginfo-gis/facility-tools/internal/config"
)

// Connection holds the database connection
type Connection struct {
	DB *sql.DB
}

// NewConnection opens a connection to the facility database. Connection
// parameters come from the environment: POSTGRES_DB, POSTGRES_USER,
// POSTGRES_PASSWORD and POSTGIS_HOST_PORT are required, PGHOST is optional
// (default localhost). A failure here is a configuration error and should
// abort the run before any row is processed.
func NewConnection() (*Connection, error) {
	host := config.GetEnv("PGHOST", "localhost")

	port, err := config.RequireEnv("POSTGIS_HOST_PORT")
	if err != nil {
		return nil, err
	}
	dbname, err := config.RequireEnv("POSTGRES_DB")
	if err != nil {
		return nil, err
	}
	user, err := config.RequireEnv("POSTGRES_USER")
	if err != nil {
		return nil, err
	}
	password, err := config.RequireEnv("POSTGRES_PASSWORD")
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Batch tools run sequentially; a small pool is plenty.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	return &Connection{DB: db}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}
