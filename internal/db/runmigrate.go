package db

import (
	"log"
	"os"
)

// RunMigrations is the SQL-migration entry point used by ConnectAndMigrate
// when MIGRATIONS is set. It is a no-op without a DSN or without the env
// var, so it is safe to call unconditionally.
func RunMigrations() error {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil
	}
	if v := os.Getenv("MIGRATIONS"); v == "" {
		log.Println("MIGRATIONS env not set; skipping sql migrations (AutoMigrate path used at app start).")
		return nil
	}
	log.Println("Running explicit SQL migrations...")
	return runSQLMigrations(dsn)
}
