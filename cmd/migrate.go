package cmd

import (
	"fmt"
	"log"

	"github.com/St1cky1/service-tasks/internal/config"
	"github.com/St1cky1/service-tasks/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Миграции базы данных",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Применить все миграции",
	RunE:  runMigrateUp,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := database.MigrateUp(cfg.DatabaseURL(), cfg.MigrationsDir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	log.Println("✅ migrate up: ok")
	return nil
}
