// Package export turns a rendered label into a printable single-page PDF.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-shiplabel/internal/label"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
	"github.com/a3tai/mcp-shiplabel/internal/render"
)

// Physical sizes in millimetres.
const (
	LabelWidthMM     = 100.0
	MinThermalHeight = 100.0
	A4WidthMM        = 210.0
	A4HeightMM       = 297.0

	mmToPt = 72 / 25.4
)

// Result is one exported document.
type Result struct {
	Filename string  `json:"filename"`
	Format   string  `json:"format"`
	Data     []byte  `json:"-"`
	PageW    float64 `json:"page_width_mm"`
	PageH    float64 `json:"page_height_mm"`
	LabelH   float64 `json:"label_height_mm"`
	Path     string  `json:"path,omitempty"`
}

// Exporter rasterizes visuals and wraps them in PDF pages.
type Exporter struct {
	scale     int
	filenames *label.FilenameBuilder
}

// NewExporter creates an exporter that rasterizes at scale device pixels per
// base pixel. Stopwords configure the generated filename; nil selects the
// default table.
func NewExporter(scale int, stopwords []string) *Exporter {
	if scale < 1 {
		scale = render.DefaultScale
	}
	if len(stopwords) == 0 {
		stopwords = label.DefaultVocabulary().Stopwords
	}
	return &Exporter{scale: scale, filenames: label.NewFilenameBuilder(stopwords)}
}

// Scale returns the raster multiplier.
func (e *Exporter) Scale() int { return e.scale }

// Filename returns the name an export of d in format f would carry.
func (e *Exporter) Filename(d *label.LabelData, f label.Format) string {
	var name string
	if d != nil {
		name = d.Recipient.Name
	}
	return e.filenames.Build(name, d.FirstProductDesc(), f)
}

// Preview returns the label as PNG bytes.
func (e *Exporter) Preview(v *render.Visual) ([]byte, error) {
	b, _, err := e.raster(v)
	return b, err
}

// raster returns the PNG encoding and its aspect ratio (height/width).
func (e *Exporter) raster(v *render.Visual) ([]byte, float64, error) {
	img, err := render.Rasterize(v, e.scale)
	if err != nil {
		return nil, 0, lerrors.Wrap(lerrors.ErrorTypeExportFailure, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, lerrors.Wrap(lerrors.ErrorTypeExportFailure, err)
	}
	b := img.Bounds()
	return buf.Bytes(), float64(b.Dy()) / float64(b.Dx()), nil
}

// LabelHeight returns the label height in mm for a raster of the given
// aspect ratio printed 100 mm wide, rounded to one decimal.
func LabelHeight(aspect float64) float64 {
	return math.Round(aspect*LabelWidthMM*10) / 10
}

// Export produces the PDF for v in format f. No partial output is returned
// on failure.
func (e *Exporter) Export(ctx context.Context, v *render.Visual, d *label.LabelData, f label.Format) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, aspect, err := e.raster(v)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := LabelHeight(aspect)
	res := &Result{Filename: e.Filename(d, f), Format: string(f), LabelH: h}

	var imp *pdfcpu.Import
	switch f {
	case label.FormatA4:
		res.PageW, res.PageH = A4WidthMM, A4HeightMM
		imp = importConfig(res.PageW, res.PageH, types.Center, a4Scale(h))
	default:
		res.PageW, res.PageH = LabelWidthMM, math.Max(h, MinThermalHeight)
		imp = importConfig(res.PageW, res.PageH, types.TopLeft, 1)
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, []io.Reader{bytes.NewReader(img)}, imp, model.NewDefaultConfiguration()); err != nil {
		return nil, lerrors.Wrap(lerrors.ErrorTypeExportFailure, fmt.Errorf("pdf assembly: %w", err)).
			WithFile(res.Filename)
	}
	res.Data = out.Bytes()
	return res, nil
}

// importConfig places one image on a page of w x h mm. Scale is relative to
// the page: 1 fits the image to the page keeping its aspect ratio.
func importConfig(w, h float64, pos types.Anchor, scale float64) *pdfcpu.Import {
	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: w * mmToPt, Height: h * mmToPt}
	imp.UserDim = true
	imp.Pos = pos
	imp.Scale = scale
	imp.ScaleAbs = false
	return imp
}

// a4Scale is the page-relative factor that prints the label 100 mm wide on
// A4, shrunk only when a tall label would overflow the sheet.
func a4Scale(labelH float64) float64 {
	s := math.Max(LabelWidthMM/A4WidthMM, labelH/A4HeightMM)
	return math.Min(s, 1)
}
