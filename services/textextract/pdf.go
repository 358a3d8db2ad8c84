// Package textextract implements content.PDFExtractor, either in process or through an Apache Tika server.
package textextract

import (
	"bytes"
	"context"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/content"
)

// PDFReader extracts text in process with ledongthuc/pdf.
type PDFReader struct{}

var _ content.PDFExtractor = (*PDFReader)(nil)

func NewPDFReader() *PDFReader {
	return &PDFReader{}
}

func (PDFReader) ExtractText(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	// the parser panics on some malformed documents
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("malformed PDF: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", errors.Wrap(err, "opening PDF")
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", errors.Wrap(err, "reading PDF text")
	}

	var buf bytes.Buffer
	if _, err = io.Copy(&buf, plain); err != nil {
		return "", errors.Wrap(err, "reading PDF text")
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// New returns the Tika client when a server is configured, the in process reader otherwise.
func New(conf core.ScraperConfig) content.PDFExtractor {
	if conf.TikaURL != "" {
		return NewTikaClient(conf.TikaURL, conf.Timeout)
	}
	return NewPDFReader()
}
