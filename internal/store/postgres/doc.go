// Package postgres implements the principal store on PostgreSQL via pgx and
// ships the embedded schema migrations.
package postgres
