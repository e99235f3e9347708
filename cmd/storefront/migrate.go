package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply local storage schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.StorageDriver == db.Memory {
			logger.Info("memory storage has no schema, nothing to migrate")
			return nil
		}
		if err := db.RunMigrations(cfg.StorageDriver, cfg.StorageDSN, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations applied", zap.String("driver", string(cfg.StorageDriver)))
		return nil
	},
}
