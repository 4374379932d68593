package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mrsingh-rishi/storybook-narrator/model"
	"github.com/mrsingh-rishi/storybook-narrator/pipeline"
	"github.com/mrsingh-rishi/storybook-narrator/report"
)

var (
	runDocx    string
	runShowRaw bool
)

var runCmd = &cobra.Command{
	Use:   "run <file.pdf>",
	Short: "Narrate a single PDF and print the results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "warn")
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		prog := newProgress(cmd.ErrOrStderr(), a.cfg.LLM.TargetLanguage)
		run, err := processFile(ctx, a.pipeline, args[0], prog.listen)
		prog.stop()

		printRun(out, run, a.cfg.LLM.TargetLanguage, runShowRaw)

		if runDocx != "" {
			if rerr := report.Save(run, a.cfg.LLM.TargetLanguage, runDocx); rerr != nil {
				return fmt.Errorf("write report: %w", rerr)
			}
			success(cmd.ErrOrStderr(), "Report written to %s", runDocx)
		}
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&runDocx, "docx", "", "also write the results to this .docx file")
	runCmd.Flags().BoolVar(&runShowRaw, "show-raw", false, "print the extracted raw text as well")
}

// processFile runs the whole pipeline on path. The returned run carries
// whatever stages finished, even when err is set.
func processFile(ctx context.Context, p *pipeline.Pipeline, path string, listen pipeline.Listener) (model.Run, error) {
	now := time.Now()
	run := model.Run{
		ID:        uuid.NewString(),
		Filename:  filepath.Base(path),
		State:     model.StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		run.State = model.StateFailed
		run.Error = err.Error()
		return run, fmt.Errorf("read %s: %w", path, err)
	}

	res, err := p.Run(ctx, run.ID, model.Document{Name: run.Filename, Data: data}, listen)
	run.RawText = res.RawText
	run.Processed = res.Processed
	run.Translated = res.Translated
	run.AudioLocation = res.Audio.Location
	run.UpdatedAt = time.Now()
	if err != nil {
		run.State = model.StateFailed
		run.Error = err.Error()
		return run, err
	}
	run.State = model.StateAudioReady
	return run, nil
}

func printRun(w io.Writer, run model.Run, language string, showRaw bool) {
	section := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Fprintln(w)
		heading(w, title)
		fmt.Fprintln(w, body)
	}
	if showRaw {
		section("Extracted Raw Text:", run.RawText)
	}
	section("Extracted Main Content:", run.Processed)
	section(fmt.Sprintf("Translated Main Content (%s):", language), run.Translated)
	section("Audio:", run.AudioLocation)
}

// reportPath is where watch mode puts the report for a PDF: beside it,
// with a .docx extension.
func reportPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".docx"
}
