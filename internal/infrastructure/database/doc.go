// Package database provides SQLite connectivity and schema migrations for
// the Show Logic action store.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive. New columns must be nullable or carry a
// default so an older binary can still read the table.
package database
