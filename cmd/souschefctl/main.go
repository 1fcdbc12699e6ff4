// Command souschefctl is the operator tool for dataset conversion,
// migrations and manual user seeding.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/souschef/backend/config"
	"github.com/pageza/souschef/backend/internal/database"
	"github.com/pageza/souschef/backend/internal/logger"
)

type app struct {
	configPath string
	out        io.Writer

	// connect opens the configured database; tests replace it
	connect func(a *app) (*gorm.DB, *zap.Logger, error)
	cfg     *config.Config
}

func main() {
	a := &app{out: os.Stdout, connect: connectConfigured}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "souschefctl",
		Short:         "Souschef operations tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a config file")
	rootCmd.SetOut(a.out)

	rootCmd.AddCommand(newConvertCmd(a))
	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newSeedUserCmd(a))
	rootCmd.AddCommand(newSeedUsersCmd(a))
	return rootCmd
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) logger() (*zap.Logger, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Development: true})
}

func connectConfigured(a *app) (*gorm.DB, *zap.Logger, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := a.logger()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	return db, log, nil
}
