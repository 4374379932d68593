// Package pdftext pulls plain text out of PDF documents.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/config"
)

// ErrInvalidDocument marks input the PDF parser could not read.
var ErrInvalidDocument = errors.New("invalid pdf document")

// Extractor turns a PDF into one string of page texts in page order.
type Extractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// pageSource is the per-backend view the accumulation loop works on.
// Pages are zero-indexed.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
	Close() error
}

type openFunc func(r io.ReaderAt, size int64) (pageSource, error)

type Options struct {
	Backend  string
	Validate bool
	Logger   zerolog.Logger
}

type Service struct {
	open     openFunc
	backend  string
	validate bool
	logger   zerolog.Logger
}

// New picks the parsing backend named in opts.
func New(opts Options) (*Service, error) {
	var open openFunc
	switch opts.Backend {
	case "", config.BackendRSC:
		open = openRSC
	case config.BackendMuPDF:
		open = openFitz
	default:
		return nil, fmt.Errorf("unknown pdf backend %q", opts.Backend)
	}
	backend := opts.Backend
	if backend == "" {
		backend = config.BackendRSC
	}
	return &Service{
		open:     open,
		backend:  backend,
		validate: opts.Validate,
		logger:   opts.Logger.With().Str("component", "pdftext").Str("backend", backend).Logger(),
	}, nil
}

// Extract concatenates the text of every page. Pages without text are
// skipped and nothing is inserted between pages.
func (s *Service) Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	if s.validate {
		if err := Validate(io.NewSectionReader(r, 0, size)); err != nil {
			return "", err
		}
	}

	src, err := s.open(r, size)
	if err != nil {
		return "", err
	}
	defer src.Close()

	text, skipped, err := collect(ctx, src)
	if err != nil {
		return "", err
	}

	s.logger.Debug().
		Int("pages", src.NumPage()).
		Int("skipped", skipped).
		Int("chars", len(text)).
		Msg("text extracted")
	return text, nil
}

func collect(ctx context.Context, src pageSource) (string, int, error) {
	var b strings.Builder
	skipped := 0
	for i := 0; i < src.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		text, err := src.PageText(i)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i+1, err)
		}
		if text == "" {
			skipped++
			continue
		}
		b.WriteString(text)
	}
	return b.String(), skipped, nil
}
