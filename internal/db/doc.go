// Package db is the durable profile store of gitswitch.
//
// BunStore wraps a *bun.DB and supports sqlite (default, modernc.org/sqlite),
// postgres (pgx stdlib) and mysql. Schema changes live as embedded SQL files
// under migrations/<dialect>/ and are applied once each, tracked in
// schema_migrations.
//
// Profiles are keyed by email. The active profile is a single row in
// active_profile, so at most one profile can ever be active; Profile.Active
// is derived on read. Every mutating method runs in one transaction.
package db
