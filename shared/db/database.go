package db

import (
	"database/sql"
)

// Database is a connectable store that hands out a *sql.DB for repositories.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
