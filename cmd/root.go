// Package cmd defines the newspipe CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newspipe",
		Short: "News article ingestion pipeline.",
		Long: `newspipe collects Korean news articles from RSS feeds, enriches them with
keywords, summaries, embeddings, and a category, and persists them to
Postgres, a snapshot store, and Elasticsearch.

The collect command reads the feeds once and publishes raw articles to the
queue; the consume command runs the enrichment and persistence workers.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (optional)")

	cmd.AddCommand(newCollectCmd())
	cmd.AddCommand(newConsumeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
