package cli

import (
	"fmt"

	"github.com/fundaciones-espana/catalog-backend/internal/backup"
	"github.com/spf13/cobra"
)

var dumpOut string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the whole collection to a dump file",
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpOut, "out", "", "dump file to write")
	_ = dumpCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := store(ctx)
	if err != nil {
		return err
	}

	f, err := backup.Dump(ctx, s, cfg.Arango.Database, cfg.Arango.Collection, now())
	if err != nil {
		return err
	}
	if err := backup.Write(dumpOut, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", dumpOut, err)
	}

	cmd.Printf("Dumped %d documents to %s\n", f.TotalDocuments, dumpOut)
	return nil
}
