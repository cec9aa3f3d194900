package database

import (
	"context"
	"fmt"
	"log"

	"inkstream/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

func Connect(cfg *config.Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Connected to database successfully")
	return db, nil
}

// TxRunner runs a function inside a database transaction. Services depend on
// this interface instead of *sqlx.DB directly so unit tests can substitute a
// pass-through runner that invokes fn with a nil tx.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type txRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) TxRunner {
	return &txRunner{db: db}
}

// WithinTx begins a transaction, runs fn, and commits. Any error from fn
// rolls the whole unit back.
func (r *txRunner) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
