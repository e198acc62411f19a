package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

var errAbort = errors.New("abort")

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// a single connection keeps every statement on the same in-memory database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE publications (id TEXT PRIMARY KEY, weblog TEXT)`)
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM publications").Scan(&count); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	return count
}

func insert(ctx context.Context, db *sql.DB, id string) error {
	_, err := GetExecutor(ctx, db).ExecContext(ctx, "INSERT INTO publications (id, weblog) VALUES (?, ?)", id, "MyBlog")
	return err
}

func TestRunInTransaction(t *testing.T) {
	tests := []struct {
		name          string
		fn            func(db *sql.DB) func(ctx context.Context) error
		expectedErr   error
		expectedCount int
	}{
		{
			name: "Commit",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					if _, ok := GetTx(ctx); !ok {
						return errors.New("no transaction in context")
					}
					return insert(ctx, db, "a")
				}
			},
			expectedCount: 1,
		},
		{
			name: "Rollback on error",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					if err := insert(ctx, db, "a"); err != nil {
						return err
					}
					return errAbort
				}
			},
			expectedErr:   errAbort,
			expectedCount: 0,
		},
		{
			name: "Nested reuses outer transaction",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(outerCtx context.Context) error {
					if err := insert(outerCtx, db, "outer"); err != nil {
						return err
					}
					return RunInTransaction(outerCtx, db, func(innerCtx context.Context) error {
						outerTx, _ := GetTx(outerCtx)
						innerTx, _ := GetTx(innerCtx)
						if outerTx != innerTx {
							return errors.New("nested call started a new transaction")
						}
						return insert(innerCtx, db, "inner")
					})
				}
			},
			expectedCount: 2,
		},
		{
			name: "Nested error rolls back everything",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(outerCtx context.Context) error {
					if err := insert(outerCtx, db, "outer"); err != nil {
						return err
					}
					return RunInTransaction(outerCtx, db, func(innerCtx context.Context) error {
						if err := insert(innerCtx, db, "inner"); err != nil {
							return err
						}
						return errAbort
					})
				}
			},
			expectedErr:   errAbort,
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			err := RunInTransaction(context.Background(), db, tt.fn(db))
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("RunInTransaction() error = %v, want %v", err, tt.expectedErr)
				}
			} else if err != nil {
				t.Fatalf("RunInTransaction() error = %v", err)
			}

			if got := countRows(t, db); got != tt.expectedCount {
				t.Errorf("row count = %d, want %d", got, tt.expectedCount)
			}
		})
	}
}

func TestGetExecutor(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	if executor := GetExecutor(ctx, db); executor != db {
		t.Error("Expected executor to be the database without a transaction")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if executor := GetExecutor(WithTx(ctx, tx), db); executor != tx {
		t.Error("Expected executor to be the transaction")
	}
}
