// Package render lays out a shipping label as a resolution-independent
// display list and rasterizes it.
//
// Layout happens in base pixels on a 283 px wide canvas, the width of a
// 100 mm label at 72 dpi. Rasterize multiplies every coordinate by an integer
// scale factor, so one Visual yields identical pixels on every call.
package render

import (
	"github.com/boombuler/barcode"
)

// BaseWidth is the label width in base pixels.
const BaseWidth = 283.0

// Kind is the type of a display-list operation.
type Kind int

const (
	// KindRect fills X,Y,W,H.
	KindRect Kind = iota
	// KindFrame strokes the outline of X,Y,W,H with Stroke thickness.
	KindFrame
	// KindText draws Text with its baseline origin at X,Y.
	KindText
	// KindCode draws the encoded Code scaled into X,Y,W,H.
	KindCode
)

// Style selects one of the embedded typefaces.
type Style int

const (
	Regular Style = iota
	Bold
	Mono
	MonoBold
)

// Op is one display-list operation.
type Op struct {
	Kind   Kind
	X, Y   float64
	W, H   float64
	Gray   uint8
	Stroke float64

	Text  string
	Size  float64
	Style Style

	Slot Slot
	Code barcode.Barcode
}

// Slot names a code position on the label.
type Slot string

const (
	SlotQRHeader      Slot = "qr_a"
	SlotBarcodeTrack  Slot = "barcode_a"
	SlotBarcodePostal Slot = "barcode_b"
	SlotQRSender      Slot = "qr_b"
)

// Slots lists the code slots in paint order.
var Slots = []Slot{SlotQRHeader, SlotBarcodeTrack, SlotBarcodePostal, SlotQRSender}

// CodeInfo records what a slot was asked to encode and whether it failed.
type CodeInfo struct {
	Payload string
	Err     error
}

// Visual is the rendered label: a display list plus the code payloads.
type Visual struct {
	Width  float64
	Height float64
	Ops    []Op
	Codes  map[Slot]CodeInfo
}

// Payload returns the content requested for slot.
func (v *Visual) Payload(slot Slot) string {
	return v.Codes[slot].Payload
}

// Blank reports whether slot was left empty because its encoder failed.
func (v *Visual) Blank(slot Slot) bool {
	return v.Codes[slot].Err != nil
}

// Texts returns every text op's string in paint order.
func (v *Visual) Texts() []string {
	var out []string
	for _, op := range v.Ops {
		if op.Kind == KindText {
			out = append(out, op.Text)
		}
	}
	return out
}
