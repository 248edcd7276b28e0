// Package database provides the SQL implementations of the storage
// interfaces defined in internal/store, plus connection setup and embedded
// schema migrations. Every store runs on PostgreSQL through the pgx stdlib
// driver or on SQLite through modernc.org/sqlite. Queries are written with
// ? placeholders and rebound for the active driver by sqlx.
package database
