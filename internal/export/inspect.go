package export

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
)

// PageInfo describes an exported document as read back from its bytes.
type PageInfo struct {
	Pages    int     `json:"pages"`
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`

	// Image is where the label raster sits on the first page, nil when the
	// page draws no image.
	Image *Placement `json:"image,omitempty"`
}

// Placement is an image rectangle in mm, measured from the page's top left.
type Placement struct {
	LeftMM   float64 `json:"left_mm"`
	TopMM    float64 `json:"top_mm"`
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
}

// imageDraw matches the "a b c d e f cm /Im Do" sequence that places an
// image XObject.
var imageDraw = regexp.MustCompile(`([-\d.]+)\s+([-\d.]+)\s+([-\d.]+)\s+([-\d.]+)\s+([-\d.]+)\s+([-\d.]+)\s+cm\s*/Im\w*\s+Do`)

// Inspect reads the page count, the first page size and the placement of
// the first page's image.
func Inspect(data []byte) (*PageInfo, error) {
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, lerrors.Wrap(lerrors.ErrorTypeExportFailure, err)
	}

	info := &PageInfo{Pages: ctx.PageCount}
	if ctx.PageCount == 0 {
		return info, nil
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, lerrors.Wrap(lerrors.ErrorTypeExportFailure, err)
	}
	if len(dims) > 0 {
		info.WidthMM = dims[0].Width / mmToPt
		info.HeightMM = dims[0].Height / mmToPt
	}

	d, _, _, err := ctx.PageDict(1, false)
	if err != nil {
		return nil, lerrors.Wrap(lerrors.ErrorTypeExportFailure, err)
	}
	content, err := ctx.PageContent(d, 1)
	if err != nil {
		if errors.Is(err, model.ErrNoContent) {
			return info, nil
		}
		return nil, lerrors.Wrap(lerrors.ErrorTypeExportFailure, err)
	}
	info.Image = placement(content, info.HeightMM)
	return info, nil
}

// placement reads the first image transform from a content stream. Only
// unrotated placements are reported.
func placement(content []byte, pageHeightMM float64) *Placement {
	m := imageDraw.FindSubmatch(content)
	if m == nil {
		return nil
	}
	var v [6]float64
	for i := range v {
		f, err := strconv.ParseFloat(string(m[i+1]), 64)
		if err != nil {
			return nil
		}
		v[i] = f
	}
	if v[1] != 0 || v[2] != 0 {
		return nil
	}
	w, h := v[0]/mmToPt, v[3]/mmToPt
	left, bottom := v[4]/mmToPt, v[5]/mmToPt
	return &Placement{LeftMM: left, TopMM: pageHeightMM - bottom - h, WidthMM: w, HeightMM: h}
}
