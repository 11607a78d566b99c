package app

import (
	"context"

	"github.com/a3tai/mcp-shiplabel/internal/export"
	"github.com/a3tai/mcp-shiplabel/internal/label"
	"github.com/a3tai/mcp-shiplabel/internal/pdf"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
	"github.com/a3tai/mcp-shiplabel/internal/pdf/stability"
	"github.com/a3tai/mcp-shiplabel/internal/render"
	"github.com/a3tai/mcp-shiplabel/internal/session"
)

// The guarded stages run the pipeline under the stability manager so a
// panic in a decoder, rasterizer or PDF writer fails one request with the
// matching error type instead of the process.

type guardedParser struct {
	*pdf.Service
	m *stability.Manager
}

func (g guardedParser) Parse(ctx context.Context, data []byte) (res *pdf.ParseResult, err error) {
	err = g.m.Guard(ctx, "parse", lerrors.ErrorTypeExtractionFailure, func(ctx context.Context) error {
		res, err = g.Service.Parse(ctx, data)
		return err
	})
	return res, err
}

type guardedRenderer struct {
	*render.Renderer
	m *stability.Manager
}

func (g guardedRenderer) Render(d *label.LabelData) (v *render.Visual, err error) {
	err = g.m.Guard(context.Background(), "render", lerrors.ErrorTypeRenderGlyphFailure, func(context.Context) error {
		v, err = g.Renderer.Render(d)
		return err
	})
	return v, err
}

type guardedExporter struct {
	*export.Exporter
	m *stability.Manager
}

func (g guardedExporter) Export(ctx context.Context, v *render.Visual, d *label.LabelData, f label.Format) (res *export.Result, err error) {
	err = g.m.Guard(ctx, "export", lerrors.ErrorTypeExportFailure, func(ctx context.Context) error {
		res, err = g.Exporter.Export(ctx, v, d, f)
		return err
	})
	return res, err
}

func (g guardedExporter) Preview(v *render.Visual) (png []byte, err error) {
	err = g.m.Guard(context.Background(), "preview", lerrors.ErrorTypeExportFailure, func(context.Context) error {
		png, err = g.Exporter.Preview(v)
		return err
	})
	return png, err
}

var (
	_ session.Parser   = guardedParser{}
	_ session.Renderer = guardedRenderer{}
	_ session.Exporter = guardedExporter{}
)
