package cli

import (
	"errors"
	"net/http"
	"time"

	"github.com/fundaciones-espana/catalog-backend/internal/backup"
	"github.com/spf13/cobra"
)

var (
	pushIn        string
	pushURL       string
	pushAPIKey    string
	pushBatchSize int

	httpClient = &http.Client{Timeout: 5 * time.Minute}
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Send a dump file to a running server",
	Long: `Replays a dump against a running server through PUT /restore. The first
batch clears the server collection and the last one rebuilds its indexes.
The API key defaults to RESTORE_API_KEY.`,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVar(&pushIn, "in", "", "dump file to read")
	pushCmd.Flags().StringVar(&pushURL, "url", "http://localhost:8080", "server base URL")
	pushCmd.Flags().StringVar(&pushAPIKey, "api-key", "", "restore API key")
	pushCmd.Flags().IntVar(&pushBatchSize, "batch-size", backup.DefaultBatchSize, "documents per request")
	_ = pushCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, _ []string) error {
	key := pushAPIKey
	if key == "" {
		key = cfg.Restore.APIKey
	}
	if key == "" {
		return errors.New("an API key is required (--api-key or RESTORE_API_KEY)")
	}

	f, err := backup.Read(pushIn)
	if err != nil {
		return err
	}

	p := &backup.Pusher{BaseURL: pushURL, APIKey: key, Client: httpClient, Logger: logger}
	n, err := p.Push(cmd.Context(), f, pushBatchSize)
	if err != nil {
		return err
	}

	cmd.Printf("Pushed %d documents to %s\n", n, pushURL)
	return nil
}
