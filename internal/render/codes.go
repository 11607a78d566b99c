package render

import (
	"fmt"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"

	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
)

// Encoder produces the linear and matrix codes printed on a label.
type Encoder interface {
	Code128(content string) (barcode.Barcode, error)
	QR(content string) (barcode.Barcode, error)
}

// DefaultEncoder encodes with boombuler/barcode.
type DefaultEncoder struct{}

// Code128 encodes content as a Code 128 symbol.
func (DefaultEncoder) Code128(content string) (barcode.Barcode, error) {
	return code128.Encode(content)
}

// QR encodes content at medium error correction.
func (DefaultEncoder) QR(content string) (barcode.Barcode, error) {
	return qr.Encode(content, qr.M, qr.Auto)
}

// encodeSlot runs one encoder call in isolation. An error or a panic becomes
// a RenderGlyphFailure; the caller leaves the slot blank.
func encodeSlot(slot Slot, content string, fn func(string) (barcode.Barcode, error)) (bc barcode.Barcode, err error) {
	defer func() {
		if r := recover(); r != nil {
			bc = nil
			err = lerrors.New(lerrors.ErrorTypeRenderGlyphFailure, fmt.Sprintf("encoder panic: %v", r)).
				WithField(string(slot))
		}
	}()

	bc, err = fn(content)
	if err != nil {
		return nil, lerrors.Wrap(lerrors.ErrorTypeRenderGlyphFailure, err).WithField(string(slot))
	}
	if bc == nil || bc.Bounds().Empty() {
		return nil, lerrors.New(lerrors.ErrorTypeRenderGlyphFailure, "encoder returned an empty symbol").
			WithField(string(slot))
	}
	return bc, nil
}
