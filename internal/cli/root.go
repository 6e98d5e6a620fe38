// Package cli implements the fundacionesctl commands.
package cli

import (
	"context"
	"time"

	"github.com/fundaciones-espana/catalog-backend/database"
	"github.com/fundaciones-espana/catalog-backend/internal/bootstrap"
	"github.com/fundaciones-espana/catalog-backend/internal/config"
	"github.com/fundaciones-espana/catalog-backend/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	cfg    config.Config
	logger = zap.NewNop()

	// openStore and now are replaced in tests.
	openStore = bootstrap.OpenStore
	now       = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "fundacionesctl",
	Short: "Offline maintenance for the foundations catalog",
	Long: `fundacionesctl dumps the catalog collection to a JSON file, reloads a
dump into the store, or pushes a dump to a running server through the
batched restore endpoint.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		logger = util.InitLogger(cfg.Log.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults to $CONFIG_FILE)")
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func store(ctx context.Context) (database.Store, error) {
	return openStore(ctx, cfg, logger)
}
