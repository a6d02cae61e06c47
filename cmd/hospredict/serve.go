package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hospredict/internal/estimate"
	"hospredict/internal/exitcode"
	"hospredict/internal/metrics"
	"hospredict/internal/ml"
	"hospredict/internal/web"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction form, API and metrics over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mw := metrics.NewWrapper(metrics.New())

	models, err := ml.LoadModels(ctx, s.LoadConfig(), mw)
	if err != nil {
		log.Error().Err(err).Msg("model load failed")
		return withCode(exitcode.ModelLoadError, err)
	}

	est, err := estimate.New(models, mw)
	if err != nil {
		return withCode(exitcode.ModelLoadError, err)
	}

	srv := web.NewServer(est, web.Options{
		Addr:         s.Addr(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		Metrics:      mw,
	})
	errCh, err := srv.Start()
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
	}

	log.Info().Msg("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
