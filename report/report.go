// Package report renders a finished run as a Word document.
package report

import (
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/mrsingh-rishi/storybook-narrator/model"
)

const (
	fontName  = "Arial"
	fontSize  = 11
	titleSize = 16
	headSize  = 13
)

// Section headings, in the order the page shows the panes.
const (
	headingRaw        = "Extracted Raw Text"
	headingProcessed  = "Extracted Main Content"
	headingTranslated = "Translated Main Content"
	headingAudio      = "Audio"
)

// Save writes run's three text panes and its audio location to path.
// Panes a run never reached are written as "(not available)".
func Save(run model.Run, language, path string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	title := run.Filename
	if title == "" {
		title = run.ID
	}
	addRun(doc.AddParagraph(""), title, true, titleSize)
	addRun(doc.AddParagraph(""), fmt.Sprintf("Run %s, state %s", run.ID, run.State), false, fontSize)
	if run.Error != "" {
		addRun(doc.AddParagraph(""), "Error: "+run.Error, false, fontSize)
	}

	translatedHeading := headingTranslated
	if language != "" {
		translatedHeading += " (" + language + ")"
	}

	addSection(doc, headingRaw, run.RawText)
	addSection(doc, headingProcessed, run.Processed)
	addSection(doc, translatedHeading, run.Translated)
	addSection(doc, headingAudio, run.AudioLocation)

	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func addSection(doc *docx.RootDoc, heading, body string) {
	doc.AddParagraph("")
	addRun(doc.AddParagraph(""), heading, true, headSize)

	if strings.TrimSpace(body) == "" {
		addRun(doc.AddParagraph(""), "(not available)", false, fontSize)
		return
	}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		addRun(doc.AddParagraph(""), line, false, fontSize)
	}
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
