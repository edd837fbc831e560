package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/database"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

// minidrop migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := boot()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := openDB(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		return database.Migrate(cmd.Context(), db, log)
	},
}

// minidrop seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate, then load the demo catalogue, riders and coupons into PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := boot()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := openDB(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db, log); err != nil {
			return err
		}
		if err := database.Seed(cmd.Context(), db, store.DemoData(), log); err != nil {
			return err
		}
		log.Info("Demo data loaded", zap.String("database", cfg.Database.Name))
		return nil
	},
}
