package pdftext

import (
	"fmt"
	"io"

	"github.com/gen2brain/go-fitz"
)

// fitzDoc reads pages through MuPDF. It copes with more producers than the
// pure Go backend at the cost of a native library.
type fitzDoc struct {
	doc *fitz.Document
}

func openFitz(r io.ReaderAt, size int64) (pageSource, error) {
	doc, err := fitz.NewFromReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &fitzDoc{doc: doc}, nil
}

func (d *fitzDoc) NumPage() int {
	return d.doc.NumPage()
}

func (d *fitzDoc) PageText(i int) (string, error) {
	text, err := d.doc.Text(i)
	if err != nil {
		return "", fmt.Errorf("mupdf text: %w", err)
	}
	return text, nil
}

func (d *fitzDoc) Close() error {
	return d.doc.Close()
}
