package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/navigatorhq/navigator/internal/app"
	"github.com/navigatorhq/navigator/internal/config"
	"github.com/navigatorhq/navigator/internal/ingest"
	"github.com/navigatorhq/navigator/internal/log"
)

var ingestBucket string

var ingestCmd = &cobra.Command{
	Use:   "ingest <key>",
	Short: "Index one document from the documents root",
	Long: `Ingest reads the document at <bucket>/<key> under the configured
documents root, chunks it, embeds each chunk and writes the result to
the vector index. Re-ingesting the same key overwrites the previous
version.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(args[0])
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestBucket, "bucket", "b", "", "bucket directory under the documents root")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(key string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	report, err := a.Ingestor.Process(ctx, ingest.Trigger{Bucket: ingestBucket, Key: key})
	if err != nil {
		return fmt.Errorf("ingesting %q: %w", key, err)
	}

	fmt.Printf("Status: %s\n", report.Status)
	fmt.Printf("Text length: %d\n", report.TextLength)
	fmt.Printf("Chunks created: %d\n", report.ChunksCreated)
	fmt.Printf("Chunks indexed: %d\n", report.ChunksIndexed)
	if len(report.FailedOrdinals) > 0 {
		fmt.Printf("Failed ordinals: %v\n", report.FailedOrdinals)
	}
	return nil
}
