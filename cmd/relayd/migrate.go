package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-topic-relay/internal/repo"
	"github.com/tbourn/go-topic-relay/internal/sysutil"
)

var migrateDBPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(*cobra.Command, []string) error {
		sysutil.SetupLogging(os.Getenv("LOG_LEVEL"), false, nil)

		path := strings.TrimSpace(migrateDBPath)
		if path == "" {
			path = os.Getenv("DB_PATH")
		}
		if path == "" {
			path = "relay.db"
		}

		db, err := repo.OpenSQLite(path, repo.Options{})
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := repo.AutoMigrate(db); err != nil {
			return err
		}
		log.Info().Str("db_path", path).Msg("schema up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDBPath, "db-path", "", "SQLite database path (default $DB_PATH or relay.db)")
}
