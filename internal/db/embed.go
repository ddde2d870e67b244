package db

import "embed"

// EmbedMigrations holds the profile-store schema (users, profiles,
// subscriptions) as goose SQL migrations.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
