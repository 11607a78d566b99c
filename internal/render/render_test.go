package render

import (
	"errors"
	"testing"

	"github.com/boombuler/barcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-shiplabel/internal/label"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
)

func sampleLabel() *label.LabelData {
	return &label.LabelData{
		Tracking: "AB123456789BR",
		Contract: "9912345678",
		OrderID:  "240101ABCDEF12",
		Modality: "SEDEX",
		Recipient: label.Recipient{
			Name:         "Vania Souza",
			Street:       "Rua Santa Terezinha, 2359",
			Neighborhood: "Jardim Marina",
			City:         "Praia Grande",
			State:        "SP",
			PostalCode:   "11702-530",
		},
		Sender: label.Sender{
			Name:       "Loja Vitta",
			Address:    "Avenida Edwilson José do Carmo, 92, Mongaguá, São Paulo",
			PostalCode: "11730-000",
		},
		Products: []label.ProdItem{
			{N: "1", Desc: "Body Manga Longa", Var: "Azul, M", Qtd: "2", Val: "R$ 29,90"},
			{N: "2", Desc: "Short Infantil Menina Listrado", Var: "Rosa", Qtd: "1", Val: "R$ 19,90"},
		},
		TotalQtd: 3,
		TotalVal: "R$ 79,70",
	}
}

type failingEncoder struct {
	DefaultEncoder
	qrErr  error
	panics bool
}

func (f failingEncoder) QR(content string) (barcode.Barcode, error) {
	if f.panics {
		panic("qr table overflow")
	}
	return nil, f.qrErr
}

func codeOps(v *Visual) map[Slot]Op {
	out := make(map[Slot]Op)
	for _, op := range v.Ops {
		if op.Kind == KindCode {
			out[op.Slot] = op
		}
	}
	return out
}

func TestRender_Payloads(t *testing.T) {
	r := NewRenderer(label.Template{})
	v, err := r.Render(sampleLabel())
	require.NoError(t, err)

	assert.Equal(t, "AB123456789BR", v.Payload(SlotBarcodeTrack))
	assert.Equal(t, "240101ABCDEF12", v.Payload(SlotQRHeader))
	assert.Equal(t, v.Payload(SlotQRHeader), v.Payload(SlotQRSender))
	assert.Equal(t, "11702530", v.Payload(SlotBarcodePostal))

	ops := codeOps(v)
	assert.Len(t, ops, 4)
	for _, slot := range Slots {
		assert.False(t, v.Blank(slot), slot)
		assert.Equal(t, v.Payload(slot), ops[slot].Code.Content(), slot)
	}
	assert.Equal(t, BaseWidth, v.Width)
	assert.Greater(t, v.Height, 300.0)
}

func TestRender_Placeholders(t *testing.T) {
	r := NewRenderer(label.Template{})
	v, err := r.Render(&label.LabelData{})
	require.NoError(t, err)

	assert.Equal(t, label.PlaceholderTracking, v.Payload(SlotBarcodeTrack))
	assert.Equal(t, label.PlaceholderQR, v.Payload(SlotQRHeader))
	assert.Equal(t, label.PlaceholderQR, v.Payload(SlotQRSender))

	texts := v.Texts()
	assert.Contains(t, texts, emptyField, "missing name and street print a dash")
	assert.Contains(t, texts, "Total (1 itens)")
}

func TestRender_NilLabel(t *testing.T) {
	v, err := NewRenderer(label.Template{}).Render(nil)
	require.NoError(t, err)
	assert.Equal(t, label.PlaceholderTracking, v.Payload(SlotBarcodeTrack))
}

func TestRender_Texts(t *testing.T) {
	v, err := NewRenderer(label.Template{Brand: "Loja"}).Render(sampleLabel())
	require.NoError(t, err)

	texts := v.Texts()
	for _, want := range []string{
		"Loja", "L", "240101ABCDEF12", "SEDEX", "AB123456789BR",
		"DESTINATÁRIO", "Vania Souza", "Jardim Marina", "Praia Grande", "11702-530",
		"REMETENTE", "Loja Vitta", "CEP: 11730-000",
		"IDENTIFICAÇÃO DOS BENS", "Body Manga Longa", "Azul, M", "R$ 29,90",
		"Total (3 itens)", "R$ 79,70",
	} {
		assert.Contains(t, texts, want)
	}
	assert.NotContains(t, texts, "11702530", "barcode B has no caption")
}

func TestRender_EncoderFailureLeavesSlotBlank(t *testing.T) {
	for name, enc := range map[string]Encoder{
		"error": failingEncoder{qrErr: errors.New("capacity exceeded")},
		"panic": failingEncoder{panics: true},
	} {
		t.Run(name, func(t *testing.T) {
			v, err := NewRenderer(label.Template{}, WithEncoder(enc)).Render(sampleLabel())
			require.NoError(t, err)

			assert.True(t, v.Blank(SlotQRHeader))
			assert.True(t, v.Blank(SlotQRSender))
			assert.False(t, v.Blank(SlotBarcodeTrack))
			assert.False(t, v.Blank(SlotBarcodePostal))
			assert.Equal(t, lerrors.ErrorTypeRenderGlyphFailure, lerrors.TypeOf(v.Codes[SlotQRHeader].Err))

			ops := codeOps(v)
			assert.NotContains(t, ops, SlotQRHeader)
			assert.NotContains(t, ops, SlotQRSender)
			assert.Contains(t, v.Texts(), "Vania Souza")

			_, err = Rasterize(v, 1)
			assert.NoError(t, err)
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer(label.Template{})

	a, err := r.Render(sampleLabel())
	require.NoError(t, err)
	b, err := r.Render(sampleLabel())
	require.NoError(t, err)
	assert.Equal(t, a.Texts(), b.Texts())
	assert.Equal(t, a.Height, b.Height)

	imgA, err := Rasterize(a, 2)
	require.NoError(t, err)
	imgB, err := Rasterize(b, 2)
	require.NoError(t, err)
	assert.Equal(t, imgA.Bounds(), imgB.Bounds())
	assert.True(t, string(imgA.Pix) == string(imgB.Pix), "pixels differ between renders")
}

func TestRender_ProductRowsGrowHeight(t *testing.T) {
	r := NewRenderer(label.Template{})
	short := sampleLabel()
	long := sampleLabel()
	long.Products = append(long.Products, label.ProdItem{
		N: "3", Desc: "Conjunto Infantil Moletom Flanelado Com Capuz E Bolso Canguru Estampado", Qtd: "1", Val: "R$ 59,90",
	})

	vs, err := r.Render(short)
	require.NoError(t, err)
	vl, err := r.Render(long)
	require.NoError(t, err)
	assert.Greater(t, vl.Height, vs.Height)
}

func TestBuilder_Wrap(t *testing.T) {
	fs, err := loadFonts()
	require.NoError(t, err)
	b := &builder{fonts: fs}

	lines := b.wrap("Conjunto Infantil Moletom Flanelado Com Capuz E Bolso Canguru Estampado Azul Marinho", 6.5, Bold, 100, 3)
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.LessOrEqual(t, fs.measure(Bold, 6.5, l), 100.0, l)
	}
	assert.Equal(t, []string{"Body"}, b.wrap("Body", 6.5, Bold, 100, 3))
	assert.Empty(t, b.wrap("   ", 6.5, Bold, 100, 3))
}

func TestBuilder_Fit(t *testing.T) {
	fs, err := loadFonts()
	require.NoError(t, err)
	b := &builder{fonts: fs}

	assert.Equal(t, "Vania", b.fit("Vania", 10, Regular, 200))
	cut := b.fit("Avenida Edwilson José do Carmo, 92, Mongaguá, São Paulo", 10, Regular, 60)
	assert.True(t, len(cut) > 0)
	assert.LessOrEqual(t, fs.measure(Regular, 10, cut), 60.0)
	assert.Equal(t, "…", string([]rune(cut)[len([]rune(cut))-1:]))
}

func TestRasterize(t *testing.T) {
	v, err := NewRenderer(label.Template{}).Render(sampleLabel())
	require.NoError(t, err)

	img, err := Rasterize(v, DefaultScale)
	require.NoError(t, err)
	assert.Equal(t, 849, img.Bounds().Dx())

	// corner pixel belongs to the outer frame
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})

	// barcode A area contains both bars and gaps
	op := codeOps(v)[SlotBarcodeTrack]
	rect := scaled(op.X, op.Y, op.W, op.H, DefaultScale)
	var dark, light int
	y := rect.Min.Y + rect.Dy()/2
	for x := rect.Min.X; x < rect.Max.X; x++ {
		if img.RGBAAt(x, y).R < 128 {
			dark++
		} else {
			light++
		}
	}
	assert.Positive(t, dark)
	assert.Positive(t, light)

	_, err = Rasterize(nil, 1)
	assert.ErrorIs(t, err, lerrors.ErrExportFailure)
}
