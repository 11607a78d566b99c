package render

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/a3tai/mcp-shiplabel/internal/label"
)

// Gray levels used by the template.
const (
	black     uint8 = 0x00
	white     uint8 = 0xff
	dimText   uint8 = 0x77
	softText  uint8 = 0x55
	darkText  uint8 = 0x33
	faintText uint8 = 0x66
	footText  uint8 = 0xaa
	rule      uint8 = 0xcc
	rowRule   uint8 = 0xeb
	rowShade  uint8 = 0xf8
	totalsBar uint8 = 0xe8
)

const (
	pad        = 6.0
	descLines  = 3
	emptyField = "—"
)

// product table columns: left edges, plus the right edge of the value column
var (
	colN     = 3.0
	colDesc  = 16.0
	colVar   = 150.0
	colQtd   = 204.0
	colVal   = 228.0
	colRight = BaseWidth - 3
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithEncoder replaces the barcode/QR encoder.
func WithEncoder(e Encoder) Option {
	return func(r *Renderer) { r.encoder = e }
}

// WithLogger sets the logger used to report blank code slots.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// Renderer lays out LabelData on the fixed label template.
type Renderer struct {
	tmpl    label.Template
	encoder Encoder
	log     *slog.Logger
}

// NewRenderer creates a renderer for the given template. Zero template fields
// take the defaults.
func NewRenderer(tmpl label.Template, opts ...Option) *Renderer {
	r := &Renderer{
		tmpl:    tmpl.Merge(label.DefaultTemplate()),
		encoder: DefaultEncoder{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// builder accumulates ops while walking down the label.
type builder struct {
	fonts *fontSet
	v     *Visual
	y     float64
}

func (b *builder) rect(x, y, w, h float64, gray uint8) {
	b.v.Ops = append(b.v.Ops, Op{Kind: KindRect, X: x, Y: y, W: w, H: h, Gray: gray})
}

func (b *builder) hline(y float64, gray uint8) {
	b.rect(0, y, BaseWidth, 1, gray)
}

func (b *builder) text(x, baseline float64, s string, size float64, style Style, gray uint8) {
	if s == "" {
		return
	}
	b.v.Ops = append(b.v.Ops, Op{Kind: KindText, X: x, Y: baseline, Text: s, Size: size, Style: style, Gray: gray})
}

// fitted draws s truncated to maxW.
func (b *builder) fitted(x, baseline, maxW float64, s string, size float64, style Style, gray uint8) {
	b.text(x, baseline, b.fit(s, size, style, maxW), size, style, gray)
}

// right draws s with its right edge at x.
func (b *builder) right(x, baseline float64, s string, size float64, style Style, gray uint8) {
	b.text(x-b.fonts.measure(style, size, s), baseline, s, size, style, gray)
}

// center draws s centered between x0 and x1.
func (b *builder) center(x0, x1, baseline float64, s string, size float64, style Style, gray uint8) {
	w := b.fonts.measure(style, size, s)
	b.text(x0+(x1-x0-w)/2, baseline, s, size, style, gray)
}

func (b *builder) fit(s string, size float64, style Style, maxW float64) string {
	if b.fonts.measure(style, size, s) <= maxW {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		cut := strings.TrimRight(string(r), " ,") + "…"
		if b.fonts.measure(style, size, cut) <= maxW {
			return cut
		}
	}
	return ""
}

// wrap breaks s into at most maxLines lines no wider than maxW; the last
// line is truncated.
func (b *builder) wrap(s string, size float64, style Style, maxW float64, maxLines int) []string {
	var lines []string
	cur := ""
	words := strings.Fields(s)
	for i, w := range words {
		next := w
		if cur != "" {
			next = cur + " " + w
		}
		if b.fonts.measure(style, size, next) <= maxW || cur == "" {
			cur = next
			continue
		}
		lines = append(lines, cur)
		cur = w
		if len(lines) == maxLines-1 {
			cur = strings.Join(words[i:], " ")
			break
		}
	}
	if cur != "" {
		lines = append(lines, b.fit(cur, size, style, maxW))
	}
	return lines
}

// Render lays out d. It is a pure function of d and the renderer's
// configuration. A code that fails to encode leaves its slot blank and is
// recorded in Visual.Codes; it never stops the rest of the label.
func (r *Renderer) Render(d *label.LabelData) (*Visual, error) {
	fs, err := loadFonts()
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = &label.LabelData{}
	}

	b := &builder{fonts: fs, v: &Visual{Width: BaseWidth, Codes: make(map[Slot]CodeInfo, len(Slots))}}

	r.header(b, d)
	r.tracking(b, d)
	r.receiver(b)
	r.recipient(b, d)
	r.postalCode(b, d)
	r.sender(b, d)
	r.products(b, d)
	r.totals(b, d)
	r.signature(b)
	r.footer(b)

	b.v.Height = b.y
	b.v.Ops = append(b.v.Ops, Op{Kind: KindFrame, X: 0, Y: 0, W: BaseWidth, H: b.y, Stroke: 1.5, Gray: black})
	return b.v, nil
}

// place encodes payload into slot and appends the op, or records the failure.
func (r *Renderer) place(b *builder, slot Slot, payload string, x, y, w, h float64) {
	fn := r.encoder.QR
	if slot == SlotBarcodeTrack || slot == SlotBarcodePostal {
		fn = r.encoder.Code128
	}

	bc, err := encodeSlot(slot, payload, fn)
	b.v.Codes[slot] = CodeInfo{Payload: payload, Err: err}
	if err != nil {
		r.log.Warn("code slot left blank", "slot", string(slot), "error", err)
		return
	}
	b.v.Ops = append(b.v.Ops, Op{Kind: KindCode, X: x, Y: y, W: w, H: h, Slot: slot, Code: bc})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return emptyField
	}
	return s
}

// header: brand mark, order id, QR A.
func (r *Renderer) header(b *builder, d *label.LabelData) {
	const qrSize = 52.0
	top := b.y + 5

	b.v.Ops = append(b.v.Ops, Op{Kind: KindFrame, X: pad, Y: top, W: 22, H: 22, Stroke: 2, Gray: black})
	initial := "S"
	if rs := []rune(r.tmpl.Brand); len(rs) > 0 {
		initial = strings.ToUpper(string(rs[0]))
	}
	b.center(pad, pad+22, top+16, initial, 13, Bold, black)

	textX := pad + 22 + 5
	b.fitted(textX, top+14, BaseWidth-textX-qrSize-pad-4, r.tmpl.Brand, 17, Bold, black)
	b.text(textX, top+22, "ID pedido:", 5.5, Regular, dimText)
	b.text(textX, top+31, orDash(d.OrderID), 7.5, MonoBold, black)

	r.place(b, SlotQRHeader, d.CodePayload(), BaseWidth-pad-qrSize, top, qrSize, qrSize)

	b.y = top + qrSize + 4
	b.hline(b.y, black)
	b.y++
}

// tracking: contract, modality, tracking code, barcode A.
func (r *Renderer) tracking(b *builder, d *label.LabelData) {
	y := b.y + 4
	b.text(pad, y+6, "Contrato: "+d.Contract, 6, Regular, dimText)
	y += 8
	b.text(pad, y+10, d.Modality, 10, Bold, black)
	y += 13
	b.text(pad, y+11, d.Tracking, 12, MonoBold, black)
	y += 15

	payload := d.Tracking
	if payload == "" {
		payload = label.PlaceholderTracking
	}
	const barH = 34.0
	r.place(b, SlotBarcodeTrack, payload, pad+3, y+3, BaseWidth-2*pad-6, barH)
	if !b.v.Blank(SlotBarcodeTrack) {
		b.center(pad, BaseWidth-pad, y+3+barH+2+8, payload, 9, Mono, black)
	}

	b.y = y + 3 + barH + 2 + 9 + 3 + 4
	b.hline(b.y, black)
	b.y++
}

// receiver: recebedor, assinatura, documento blank lines.
func (r *Renderer) receiver(b *builder) {
	y := b.y + 3
	for _, lbl := range []string{"Recebedor:", "Assinatura:", "Documento:"} {
		b.text(pad, y+9, lbl, 6, Regular, softText)
		x := pad + b.fonts.measure(Regular, 6, lbl) + 5
		b.rect(x, y+10, BaseWidth-pad-x, 1, black)
		y += 11 + 3
	}
	b.y = y
	b.hline(b.y, rule)
	b.y++
}

// tag draws a black section bar with a white caption.
func (r *Renderer) tag(b *builder, caption string) {
	b.rect(0, b.y, BaseWidth, 15, black)
	b.text(pad, b.y+11, caption, 9, Bold, white)
	b.y += 15
}

// recipient: five fixed lines.
func (r *Renderer) recipient(b *builder, d *label.LabelData) {
	r.tag(b, "DESTINATÁRIO")
	maxW := BaseWidth - 2*pad
	rc := d.Recipient

	y := b.y + 5
	b.fitted(pad, y+10, maxW, orDash(rc.Name), 10.5, Bold, black)
	y += 13
	b.fitted(pad, y+8, maxW, orDash(rc.Street), 8, Regular, black)
	y += 10
	b.fitted(pad, y+8, maxW, rc.Neighborhood, 7.5, Regular, darkText)
	y += 11
	cepW := b.fonts.measure(MonoBold, 9, rc.PostalCode)
	b.fitted(pad, y+9, maxW-cepW-6, rc.City, 9, Bold, black)
	b.right(BaseWidth-pad, y+9, rc.PostalCode, 9, MonoBold, black)
	y += 11
	b.fitted(pad, y+8, maxW, rc.State, 7.5, Regular, darkText)
	y += 10

	b.y = y + 3
	b.hline(b.y, rule)
	b.y++
}

// postalCode: barcode B, no visible text.
func (r *Renderer) postalCode(b *builder, d *label.LabelData) {
	r.place(b, SlotBarcodePostal, label.PadCep(d.Recipient.PostalCode), pad, b.y+3, 155, 20)
	b.y += 3 + 20 + 2
	b.hline(b.y, black)
	b.y++
}

// sender: name, address, postal code, QR B.
func (r *Renderer) sender(b *builder, d *label.LabelData) {
	r.tag(b, "REMETENTE")
	const qrSize = 42.0
	top := b.y + 5
	maxW := BaseWidth - 2*pad - qrSize - 6
	s := d.Sender

	y := top
	b.fitted(pad, y+9, maxW, s.Name, 9.5, Bold, black)
	y += 12
	for _, line := range b.wrap(s.Address, 7.5, Regular, maxW, 2) {
		b.text(pad, y+8, line, 7.5, Regular, black)
		y += 10.5
	}
	b.text(pad, y+8, "CEP: "+s.PostalCode, 7.5, Regular, black)
	y += 10

	r.place(b, SlotQRSender, d.CodePayload(), BaseWidth-pad-qrSize, top, qrSize, qrSize)

	b.y = max(y, top+qrSize) + 5
	b.hline(b.y, black)
	b.y++
}

// products: title, header row and one row per item.
func (r *Renderer) products(b *builder, d *label.LabelData) {
	b.center(0, BaseWidth, b.y+3+7, "IDENTIFICAÇÃO DOS BENS", 7, Bold, black)
	b.y += 3 + 7 + 3
	b.hline(b.y, rule)
	b.y++

	b.rect(0, b.y, BaseWidth, 11, black)
	for _, h := range []struct {
		x    float64
		text string
	}{{colN, "#"}, {colDesc, "Descrição do Produto"}, {colVar, "Variação"}, {colQtd, "Qtd"}, {colVal, "Valor"}} {
		b.text(h.x, b.y+8, h.text, 5.5, Bold, white)
	}
	b.y += 11

	const size, leading = 6.5, 8.8
	for i, p := range d.Products {
		lines := b.wrap(p.Desc, size, Bold, colVar-colDesc-4, descLines)
		if len(lines) == 0 {
			lines = []string{""}
		}
		h := 3 + float64(len(lines))*leading + 3
		if i%2 == 0 {
			b.rect(0, b.y, BaseWidth, h, rowShade)
		}

		base := b.y + 3 + size
		b.fitted(colN, base, colDesc-colN-2, p.N, size, Regular, black)
		for j, l := range lines {
			b.text(colDesc, base+float64(j)*leading, l, size, Bold, black)
		}
		b.fitted(colVar, base, colQtd-colVar-3, p.Var, size, Regular, black)
		b.center(colQtd, colVal-2, base, p.Qtd, size, Regular, black)
		b.right(colRight, base, p.Val, size, Bold, black)

		b.y += h
		b.rect(0, b.y, BaseWidth, 1, rowRule)
		b.y++
	}
}

// totals: item count and declared value.
func (r *Renderer) totals(b *builder, d *label.LabelData) {
	b.rect(0, b.y, BaseWidth, 16, totalsBar)
	b.text(pad, b.y+11, fmt.Sprintf("Total (%d itens)", max(d.TotalQtd, 1)), 8, Bold, black)
	b.right(BaseWidth-pad, b.y+11, d.TotalVal, 8, Bold, black)
	b.y += 16
}

// signature: declarant signature and date lines.
func (r *Renderer) signature(b *builder) {
	b.hline(b.y, rule)
	b.y++
	y := b.y + 5
	b.rect(pad, y+13, 110, 1, black)
	b.text(pad, y+13+2+6, "Assinatura do Remetente/Declarante", 5.5, Regular, faintText)
	b.rect(BaseWidth-pad-75, y+13, 75, 1, black)
	b.right(BaseWidth-pad, y+13+2+6, "Data: ___/___/______", 5.5, Regular, faintText)
	b.y = y + 13 + 2 + 6 + 4
}

// footer: legal disclaimer.
func (r *Renderer) footer(b *builder) {
	b.y += 3
	line := b.fit(r.tmpl.LegalNotice, 4.5, Regular, BaseWidth-2*pad)
	b.center(0, BaseWidth, b.y+4.5, line, 4.5, Regular, footText)
	b.y += 4.5 + 5
}
