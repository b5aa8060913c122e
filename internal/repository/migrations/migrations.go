// Package migrations содержит встроенные SQL-миграции схемы БД.
package migrations

import "embed"

// Migrations - файловая система с миграциями для goose.
//
//go:embed *.sql
var Migrations embed.FS
