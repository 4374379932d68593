package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrsingh-rishi/storybook-narrator/report"
	"github.com/mrsingh-rishi/storybook-narrator/types"
	"github.com/mrsingh-rishi/storybook-narrator/watcher"
)

var watchWorkers int

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Narrate every PDF dropped into a directory",
	Long: `watch processes each new PDF that appears in dir and writes a .docx report
next to it. Audio goes to the configured artifact store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "")
		if err != nil {
			return err
		}
		defer a.Close()

		workers := watchWorkers
		if workers <= 0 {
			workers = a.cfg.Server.Workers
		}
		language := a.cfg.LLM.TargetLanguage

		handle := func(ctx context.Context, path string) error {
			log := a.logger.With().Str("file", path).Logger()
			run, err := processFile(ctx, a.pipeline, path, func(ev types.StageEvent) {
				if ev.Type == types.EventCompleted {
					log.Info().Str("stage", string(ev.Stage)).Msg("stage completed")
				}
			})
			out := reportPath(path)
			if rerr := report.Save(run, language, out); rerr != nil {
				log.Error().Err(rerr).Msg("write report")
			} else {
				log.Info().Str("report", out).Str("state", string(run.State)).Msg("report written")
			}
			return err
		}

		w, err := watcher.New(args[0], handle, watcher.Options{Workers: workers, Logger: a.logger})
		if err != nil {
			return err
		}
		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().IntVarP(&watchWorkers, "workers", "w", 0, "files processed at once (default server.workers)")
}
