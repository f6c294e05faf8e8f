// Package migrations holds the schema migrations for the postgres store.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registered migration set.
var Migrations = migrate.NewMigrations()

func init() {
	// Derive migration names from the registering file names.
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
