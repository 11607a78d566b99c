package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-shiplabel/internal/label"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
)

// ReaderOptions configures a Reader. There is no process-wide decoder state;
// everything the reader needs is passed here.
type ReaderOptions struct {
	// GeometryPage is the 1-based page whose runs keep their coordinates.
	GeometryPage int
	// MaxPages bounds how many pages are decoded. Zero means all.
	MaxPages int
}

// Reader decodes a PDF into positioned text runs and logical lines.
type Reader struct {
	geometryPage int
	maxPages     int
}

// NewReader creates a reader. A non-positive geometry page defaults to 2.
func NewReader(opts ReaderOptions) *Reader {
	if opts.GeometryPage <= 0 {
		opts.GeometryPage = 2
	}
	return &Reader{
		geometryPage: opts.GeometryPage,
		maxPages:     opts.MaxPages,
	}
}

// Extract decodes every page of data. Runs on the geometry page are returned
// with their origin; all pages contribute lines. Pages without text yield
// nothing and are not an error; only an undecodable document fails.
func (r *Reader) Extract(ctx context.Context, data []byte) (doc *RawDocument, err error) {
	defer func() {
		// the decoder panics on some malformed streams
		if rec := recover(); rec != nil {
			doc = nil
			err = lerrors.New(lerrors.ErrorTypeExtractionFailure, fmt.Sprintf("decoder panic: %v", rec))
		}
	}()

	if len(data) == 0 {
		return nil, lerrors.New(lerrors.ErrorTypeExtractionFailure, "empty document")
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, lerrors.Wrap(lerrors.ErrorTypeExtractionFailure, fmt.Errorf("failed to open PDF: %w", err))
	}

	doc = &RawDocument{
		Pages:         pdfReader.NumPage(),
		GeometryItems: []label.TextItem{},
		Lines:         []string{},
	}

	last := doc.Pages
	if r.maxPages > 0 && last > r.maxPages {
		last = r.maxPages
	}

	for pageNum := 1; pageNum <= last; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, lerrors.Wrap(lerrors.ErrorTypeExtractionFailure, err).WithPage(pageNum)
		}

		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, t := range row.Content {
				text := strings.TrimSpace(t.S)
				if text == "" {
					continue
				}
				parts = append(parts, text)
				if pageNum == r.geometryPage {
					doc.GeometryItems = append(doc.GeometryItems, label.TextItem{Text: text, X: t.X, Y: t.Y})
				}
			}
			if line := strings.Join(strings.Fields(strings.Join(parts, " ")), " "); line != "" {
				doc.Lines = append(doc.Lines, line)
			}
		}
	}

	return doc, nil
}
