package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"churn-profit/internal/cfg"
	"churn-profit/internal/common"
	"churn-profit/internal/ml"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured in-process models over HTTP",
		Long: `Start a scoring service that exposes the configured logistic and prior models
through the same POST /fit and POST /predict contract remote models use.
Remote entries in the configuration are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cfg.Load()
			if err != nil {
				return err
			}

			models, err := localModels(settings.Models)
			if err != nil {
				return err
			}

			ms := ml.NewModelServer(models, addr)
			errCh := make(chan error, 1)
			go func() {
				if err := ms.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down model server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return ms.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "Listen address")
	return cmd
}

func localModels(configs []cfg.ModelConfig) ([]ml.NamedModel, error) {
	var local []cfg.ModelConfig
	for _, c := range configs {
		if c.Type == common.ModelTypeRemote {
			log.Warn().Str("model", c.Name).Msg("Skipping remote model")
			continue
		}
		local = append(local, c)
	}
	if len(local) == 0 {
		return nil, fmt.Errorf("no local models to serve")
	}
	return ml.FromConfigs(local)
}
