package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/golang/freetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
)

// DefaultScale is the raster multiplier used for export.
const DefaultScale = 3

// Rasterize paints v at scale device pixels per base pixel.
func Rasterize(v *Visual, scale int) (*image.RGBA, error) {
	if v == nil {
		return nil, lerrors.New(lerrors.ErrorTypeExportFailure, "nothing to rasterize")
	}
	if scale < 1 {
		scale = 1
	}
	fs, err := loadFonts()
	if err != nil {
		return nil, err
	}

	s := float64(scale)
	w := int(math.Ceil(v.Width * s))
	h := int(math.Ceil(v.Height * s))
	if w <= 0 || h <= 0 {
		return nil, lerrors.New(lerrors.ErrorTypeExportFailure, fmt.Sprintf("empty canvas %dx%d", w, h))
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetHinting(font.HintingNone)

	for _, op := range v.Ops {
		switch op.Kind {
		case KindRect:
			fill(img, scaled(op.X, op.Y, op.W, op.H, s), op.Gray)
		case KindFrame:
			t := int(math.Max(1, math.Round(op.Stroke*s)))
			r := scaled(op.X, op.Y, op.W, op.H, s).Intersect(img.Bounds())
			fill(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), op.Gray)
			fill(img, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), op.Gray)
			fill(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), op.Gray)
			fill(img, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), op.Gray)
		case KindText:
			ctx.SetFont(fs.font(op.Style))
			ctx.SetFontSize(op.Size * s)
			ctx.SetSrc(image.NewUniform(color.Gray{Y: op.Gray}))
			pt := fixed.Point26_6{X: fixed.Int26_6(op.X * s * 64), Y: fixed.Int26_6(op.Y * s * 64)}
			if _, err := ctx.DrawString(op.Text, pt); err != nil {
				return nil, lerrors.Wrap(lerrors.ErrorTypeExportFailure, err)
			}
		case KindCode:
			if op.Code == nil {
				continue
			}
			draw.NearestNeighbor.Scale(img, scaled(op.X, op.Y, op.W, op.H, s), op.Code, op.Code.Bounds(), draw.Src, nil)
		}
	}
	return img, nil
}

func scaled(x, y, w, h, s float64) image.Rectangle {
	return image.Rect(
		int(math.Round(x*s)), int(math.Round(y*s)),
		int(math.Round((x+w)*s)), int(math.Round((y+h)*s)),
	)
}

func fill(img *image.RGBA, r image.Rectangle, gray uint8) {
	draw.Draw(img, r, image.NewUniform(color.Gray{Y: gray}), image.Point{}, draw.Src)
}
