package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fredjeong/news-data-processing/internal/app"
	"github.com/fredjeong/news-data-processing/internal/config"
)

// newCollectCmd runs one pass over the configured feeds and publishes every
// article to the queue.
func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Read the RSS feeds once and publish articles to the queue.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			a, err := app.NewCollectorApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			defer a.Close()

			return a.Collector.Run(cmd.Context(), a.Sources)
		},
	}
}
