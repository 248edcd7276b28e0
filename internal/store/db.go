package store

import "github.com/jmoiron/sqlx"

// DBTX is the query surface shared by *sqlx.DB and *sqlx.Tx, allowing
// stores to run either on the connection pool or inside a transaction.
// Queries are written with ? placeholders and passed through Rebind.
type DBTX interface {
	sqlx.ExtContext
}
