package cli

import (
	"github.com/fundaciones-espana/catalog-backend/internal/backup"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/spf13/cobra"
)

var (
	reloadIn        string
	reloadBatchSize int
	reloadIndexes   bool
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Replace the collection with the contents of a dump file",
	Long: `Clears the collection, inserts the dump in batches, rebuilds the catalog
indexes and checks that the collection holds exactly the number of
documents the dump declares.`,
	RunE: runReload,
}

func init() {
	reloadCmd.Flags().StringVar(&reloadIn, "in", "", "dump file to read")
	reloadCmd.Flags().IntVar(&reloadBatchSize, "batch-size", backup.DefaultBatchSize, "documents per insert")
	reloadCmd.Flags().BoolVar(&reloadIndexes, "indexes", true, "create the catalog indexes")
	_ = reloadCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, _ []string) error {
	f, err := backup.Read(reloadIn)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := store(ctx)
	if err != nil {
		return err
	}

	svc := services.NewRestoreService(s, nil, nil, logger)
	cmd.Printf("Reloading %d documents from %s...\n", f.TotalDocuments, reloadIn)
	if err := backup.Reload(ctx, svc, f, backup.ReloadOptions{
		BatchSize:   reloadBatchSize,
		SkipIndexes: !reloadIndexes,
	}, logger); err != nil {
		return err
	}

	cmd.Printf("Reload complete: %d documents verified.\n", f.TotalDocuments)
	return nil
}
