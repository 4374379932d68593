package pdftext

import (
	"fmt"
	"io"
	"math"
	"strings"

	"rsc.io/pdf"
)

type rscDoc struct {
	r *pdf.Reader
}

// rsc.io/pdf reports malformed input by panicking, so every entry point
// converts panics into ErrInvalidDocument.
func openRSC(r io.ReaderAt, size int64) (src pageSource, err error) {
	defer func() {
		if p := recover(); p != nil {
			src, err = nil, fmt.Errorf("%w: %v", ErrInvalidDocument, p)
		}
	}()

	rd, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &rscDoc{r: rd}, nil
}

func (d *rscDoc) NumPage() int {
	return d.r.NumPage()
}

func (d *rscDoc) PageText(i int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrInvalidDocument, p)
		}
	}()

	page := d.r.Page(i + 1)
	// A page may omit /Contents entirely; it is blank, not broken.
	if page.V.IsNull() || page.V.Key("Contents").IsNull() {
		return "", nil
	}
	return joinText(page.Content().Text), nil
}

func (d *rscDoc) Close() error { return nil }

// joinText lays glyph runs back out as lines. A vertical jump of more than
// half the font size starts a new line; a horizontal gap wider than a thin
// space becomes a space.
func joinText(items []pdf.Text) string {
	var b strings.Builder
	var prev *pdf.Text
	for i := range items {
		t := &items[i]
		if t.S == "" {
			continue
		}
		if prev != nil {
			switch {
			case math.Abs(t.Y-prev.Y) > prev.FontSize/2:
				b.WriteByte('\n')
			case t.X-(prev.X+prev.W) > prev.FontSize*0.15 &&
				!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " "):
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		prev = t
	}
	return b.String()
}
