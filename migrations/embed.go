// Package migrations встраивает SQL миграции для goose.
package migrations

import "embed"

// FS содержит все *.sql миграции
//
//go:embed *.sql
var FS embed.FS
