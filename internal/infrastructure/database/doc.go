// Package database provides SQLite connectivity and schema migrations for
// Inkwell.
//
// The store runs with a single open connection, foreign keys enforced and
// WAL mode by default. Migrations are read from any fs.FS, normally the
// embedded migrations package:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
//	    return err
//	}
package database
