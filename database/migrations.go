// microboard/database/migrations.go
package database

// migration represents a single database schema migration.
type migration struct {
	Version uint
	Query   string
}

// allMigrations holds all schema changes in order.
var allMigrations = []migration{
	{
		Version: 1,
		Query: `
-- Provenance flags for rows copied in by the import tooling. Imported posts
-- keep their foreign post numbers, so the rebuild pass needs to know which
-- rows carry pre-rendered foreign HTML.
ALTER TABLE posts ADD COLUMN imported BOOLEAN DEFAULT 0;
ALTER TABLE accounts ADD COLUMN imported BOOLEAN DEFAULT 0;
		`,
	},
}
