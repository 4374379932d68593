package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/mrsingh-rishi/storybook-narrator/model"
	"github.com/mrsingh-rishi/storybook-narrator/types"
)

var (
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	headingColor = color.New(color.FgCyan, color.Bold)
)

func success(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func failure(w io.Writer, format string, args ...any) {
	failureColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

func heading(w io.Writer, title string) {
	headingColor.Fprintln(w, title)
}

func stageLabels(language string) map[model.Stage][2]string {
	return map[model.Stage][2]string{
		model.StageExtract:    {"Extracting text from PDF...", "Extracted text"},
		model.StageProcess:    {"Extracting main content...", "Extracted main content"},
		model.StageTranslate:  {"Translating to " + language + "...", "Translated to " + language},
		model.StageSynthesize: {"Generating audio...", "Generated audio"},
	}
}

// progress shows one spinner per stage while a run executes.
type progress struct {
	w       io.Writer
	spin    *spinner.Spinner
	labels  map[model.Stage][2]string
	started time.Time
}

func newProgress(w io.Writer, language string) *progress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = w
	return &progress{w: w, spin: s, labels: stageLabels(language)}
}

func (p *progress) listen(ev types.StageEvent) {
	label := p.labels[ev.Stage]
	switch ev.Type {
	case types.EventStarted:
		p.started = time.Now()
		p.spin.Suffix = " " + label[0]
		p.spin.Start()
	case types.EventCompleted:
		p.spin.Stop()
		success(p.w, "%s (%s)", label[1], time.Since(p.started).Round(time.Millisecond))
	case types.EventFailed:
		p.spin.Stop()
		failure(p.w, "%s", ev.Error)
	}
}

func (p *progress) stop() {
	p.spin.Stop()
}
