package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrsingh-rishi/storybook-narrator/history"
	"github.com/mrsingh-rishi/storybook-narrator/queue"
	"github.com/mrsingh-rishi/storybook-narrator/session"
	"github.com/mrsingh-rishi/storybook-narrator/web"
	"github.com/mrsingh-rishi/storybook-narrator/workers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the narrator page and run API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "")
		if err != nil {
			return err
		}
		defer a.Close()
		log := a.logger

		store, err := history.New(ctx, a.cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := session.NewManager(a.pipeline, store, log)
		if err != nil {
			return err
		}
		pool, err := workers.NewPipelineWorker(queue.New[string](), a.cfg.Server.Workers, sessions.Execute, log)
		if err != nil {
			return err
		}
		sessions.SetSubmitter(pool)
		sessions.SetRetention(a.cfg.Server.SessionRetention)
		pool.Start()
		defer pool.Stop()

		srv, err := web.New(web.Options{
			Sessions:       sessions,
			Artifacts:      a.store,
			MaxUploadBytes: a.cfg.Server.MaxUploadBytes(),
			Language:       a.cfg.LLM.TargetLanguage,
			Logger:         log,
		})
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Listen(a.cfg.Server.Addr)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
		return nil
	},
}
