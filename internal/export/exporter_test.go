package export

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-shiplabel/internal/label"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
	"github.com/a3tai/mcp-shiplabel/internal/render"
)

func sampleVisual(t *testing.T) (*render.Visual, *label.LabelData) {
	t.Helper()
	d := &label.LabelData{
		Tracking: "AB123456789BR",
		OrderID:  "240101ABCDEF12",
		Modality: "SEDEX",
		Recipient: label.Recipient{
			Name:       "Vania Souza",
			Street:     "Rua Santa Terezinha, 2359",
			City:       "Praia Grande",
			State:      "SP",
			PostalCode: "11702-530",
		},
		Sender:   label.Sender{Name: "Loja Vitta", PostalCode: "11730-000"},
		Products: []label.ProdItem{{N: "1", Desc: "Body Manga Longa", Var: "Azul, M", Qtd: "2", Val: "R$ 29,90"}},
		TotalQtd: 2,
		TotalVal: "R$ 59,80",
	}
	v, err := render.NewRenderer(label.Template{}).Render(d)
	require.NoError(t, err)
	return v, d
}

func TestLabelHeight(t *testing.T) {
	assert.Equal(t, 150.0, LabelHeight(1.5))
	assert.Equal(t, 141.4, LabelHeight(1.41421))
	assert.Equal(t, 50.0, LabelHeight(0.5))
}

func TestA4Scale(t *testing.T) {
	assert.InDelta(t, 100.0/210.0, a4Scale(120), 1e-9)
	assert.InDelta(t, 150.0/297.0, a4Scale(150), 1e-9)
	assert.InDelta(t, 250.0/297.0, a4Scale(250), 1e-9)
	assert.Equal(t, 1.0, a4Scale(400))
}

func TestExporter_Filename(t *testing.T) {
	e := NewExporter(0, nil)
	assert.Equal(t, render.DefaultScale, e.Scale())

	_, d := sampleVisual(t)
	assert.Equal(t, "vania_body_manga_longa.pdf", e.Filename(d, label.FormatThermal))
	assert.Equal(t, "vania_body_manga_longa_A4.pdf", e.Filename(d, label.FormatA4))
	assert.Equal(t, "destinatario_produto.pdf", e.Filename(nil, label.FormatThermal))
}

func TestExporter_Preview(t *testing.T) {
	v, _ := sampleVisual(t)
	e := NewExporter(2, nil)

	b, err := e.Preview(v)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 566, img.Bounds().Dx())
}

func TestExporter_ExportThermal(t *testing.T) {
	v, d := sampleVisual(t)
	e := NewExporter(2, nil)

	res, err := e.Export(context.Background(), v, d, label.FormatThermal)
	require.NoError(t, err)
	assert.Equal(t, "vania_body_manga_longa.pdf", res.Filename)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF-")))
	assert.Equal(t, LabelWidthMM, res.PageW)
	assert.GreaterOrEqual(t, res.PageH, MinThermalHeight)
	assert.Equal(t, max(res.LabelH, MinThermalHeight), res.PageH)

	info, err := Inspect(res.Data)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
	assert.InDelta(t, res.PageW, info.WidthMM, 0.5)
	assert.InDelta(t, res.PageH, info.HeightMM, 0.5)

	require.NotNil(t, info.Image)
	assert.InDelta(t, LabelWidthMM, info.Image.WidthMM, 0.1)
	assert.InDelta(t, res.LabelH, info.Image.HeightMM, 0.1)
	assert.InDelta(t, 0.0, info.Image.LeftMM, 0.1)
	assert.InDelta(t, 0.0, info.Image.TopMM, 0.1)
}

func TestExporter_ExportA4(t *testing.T) {
	v, d := sampleVisual(t)
	e := NewExporter(1, nil)

	res, err := e.Export(context.Background(), v, d, label.FormatA4)
	require.NoError(t, err)
	assert.Equal(t, "vania_body_manga_longa_A4.pdf", res.Filename)

	info, err := Inspect(res.Data)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
	assert.InDelta(t, A4WidthMM, info.WidthMM, 0.5)
	assert.InDelta(t, A4HeightMM, info.HeightMM, 0.5)

	require.NotNil(t, info.Image)
	assert.InDelta(t, LabelWidthMM, info.Image.WidthMM, 0.1, "label prints 100 mm wide on A4")
	assert.InDelta(t, res.LabelH, info.Image.HeightMM, 0.1)
	assert.InDelta(t, (A4WidthMM-LabelWidthMM)/2, info.Image.LeftMM, 0.1)
	assert.InDelta(t, (A4HeightMM-res.LabelH)/2, info.Image.TopMM, 0.1)
}

func TestPlacement(t *testing.T) {
	p := placement([]byte("q 283.46457 0.00000 0.00000 425.19685 155.90551 208.34646 cm /Im0 Do Q"), A4HeightMM)
	require.NotNil(t, p)
	assert.InDelta(t, 100.0, p.WidthMM, 1e-3)
	assert.InDelta(t, 150.0, p.HeightMM, 1e-3)
	assert.InDelta(t, 55.0, p.LeftMM, 1e-3)
	assert.InDelta(t, 73.5, p.TopMM, 1e-3)

	assert.Nil(t, placement([]byte("q 1 0 0 1 0 0 cm Q"), A4HeightMM))
	assert.Nil(t, placement([]byte("q 0 1 -1 0 0 0 cm /Im0 Do Q"), A4HeightMM))
}

func TestExporter_ExportFailures(t *testing.T) {
	e := NewExporter(1, nil)

	res, err := e.Export(context.Background(), nil, nil, label.FormatThermal)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, lerrors.ErrExportFailure)

	v, d := sampleVisual(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err = e.Export(ctx, v, d, label.FormatThermal)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInspect_Invalid(t *testing.T) {
	_, err := Inspect([]byte("not a pdf"))
	assert.ErrorIs(t, err, lerrors.ErrExportFailure)
}
