package repository

import (
	"github.com/jmoiron/sqlx"
)

// ext picks the transaction when one is in progress, otherwise the pool.
func ext(db *sqlx.DB, tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return db
}
