package pdf

import (
	"github.com/a3tai/mcp-shiplabel/internal/label"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
)

// UploadRequest is one file handed to the pipeline
type UploadRequest struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Data     []byte `json:"-"`
}

// RawDocument is the decoder output before noise filtering
type RawDocument struct {
	Pages         int              `json:"pages"`
	GeometryItems []label.TextItem `json:"geometry_items"`
	Lines         []string         `json:"lines"`
}

// ParseResult is the outcome of reading one shipment document
type ParseResult struct {
	Label        *label.LabelData    `json:"label"`
	Pages        int                 `json:"pages"`
	LinesRead    int                 `json:"lines_read"`
	LinesDropped int                 `json:"lines_dropped"`
	Issues       *lerrors.Collection `json:"issues"`
}

// PageData builds the parser input from a decoded document
func (d *RawDocument) PageData(filter *NoiseFilter) *label.PageData {
	lines, fullText := filter.Filter(d.Lines)
	return &label.PageData{
		Page2Items: d.GeometryItems,
		AllLines:   lines,
		FullText:   fullText,
	}
}
