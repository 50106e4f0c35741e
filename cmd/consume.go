package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/api"
	"github.com/fredjeong/news-data-processing/internal/app"
	"github.com/fredjeong/news-data-processing/internal/config"
)

// newConsumeCmd runs the enrichment and persistence workers until interrupted.
func newConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Run the enrichment and persistence workers.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.NewConsumerApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			defer a.Close()

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           api.NewServer(a.Logger).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				a.Logger.Info("ops server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.Logger.Error("ops server failed", zap.Error(err))
				}
			}()

			err = a.Consumer.Run(ctx)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
				a.Logger.Warn("ops server shutdown error", zap.Error(shutdownErr))
			}

			return err
		},
	}
}
