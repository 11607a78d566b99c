// Package testpdf writes small text-only PDF documents with runs placed at
// exact coordinates. It backs the package tests and the CLI's sample command.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Run is one text-show operation at absolute page coordinates.
type Run struct {
	Text string
	X, Y float64
}

// Page is an A4 page holding runs.
type Page struct {
	Runs []Run
}

// Column places lines top-down at x, starting at top and moving down by leading.
func Column(x, top, leading float64, lines ...string) []Run {
	runs := make([]Run, 0, len(lines))
	for i, l := range lines {
		runs = append(runs, Run{Text: l, X: x, Y: top - float64(i)*leading})
	}
	return runs
}

var winAnsi = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

// Build assembles a PDF with one Helvetica (WinAnsiEncoding) font shared by
// all pages.
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, p := range pages {
		content := contentStream(p.Runs)
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func contentStream(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&b, "BT /F1 9 Tf 1 0 0 1 %.2f %.2f Tm (%s) Tj ET\n", r.X, r.Y, escape(r.Text))
	}
	return b.String()
}

// escape encodes s as WinAnsi and escapes the literal-string delimiters.
func escape(s string) string {
	enc, err := winAnsi.String(s)
	if err != nil {
		enc = s
	}
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(enc)
}

// Sample values printed by ShippingLabel.
const (
	SampleTracking  = "AB123456789BR"
	SampleOrderID   = "240101ABCDEF12"
	SampleContract  = "9912345678"
	SampleRecipient = "Vania Souza"
	SampleFilename  = "vania_body_manga_longa.pdf"
)

// ShippingLabel returns a two-page carrier document: the label on page 1 and
// the declaration of content, with sender and recipient columns, on page 2.
func ShippingLabel() []byte {
	page1 := Page{Runs: Column(20, 800, 14,
		"Shopee",
		"ID pedido: "+SampleOrderID,
		"Contrato: "+SampleContract,
		"SEDEX",
		SampleTracking,
		"DESTINATÁRIO",
		SampleRecipient,
		"Rua Santa Terezinha, 2359",
		"Jardim Marina",
		"Praia Grande SP 11702-530",
		"Shopee não é proprietário nem responsável pelos bens entregues. Constitui crime (art. 261 do Código Penal Brasileiro)",
	)}

	var p2 []Run
	p2 = append(p2, Run{Text: "DECLARAÇÃO DE CONTEÚDO", X: 200, Y: 800})
	p2 = append(p2, Run{Text: "REMETENTE", X: 40, Y: 780}, Run{Text: "DESTINATÁRIO", X: 320, Y: 780})
	row := func(y float64, left, leftVal, right, rightVal string) {
		if left != "" {
			p2 = append(p2, Run{Text: left, X: 40, Y: y})
		}
		if leftVal != "" {
			p2 = append(p2, Run{Text: leftVal, X: 100, Y: y})
		}
		if right != "" {
			p2 = append(p2, Run{Text: right, X: 320, Y: y})
		}
		if rightVal != "" {
			p2 = append(p2, Run{Text: rightVal, X: 380, Y: y})
		}
	}
	row(764, "NOME:", "Loja Vitta", "NOME:", SampleRecipient)
	row(750, "ENDEREÇO:", "Avenida Edwilson José do Carmo, 92,", "ENDEREÇO:", "Rua Santa Terezinha, 2359, Mongaguá,")
	row(738, "", "Mongaguá, São Paulo", "", "")
	row(724, "MUNICÍPIO: Mongaguá", "", "MUNICÍPIO:", "Praia Grande")
	row(710, "UF: SP", "", "UF:", "SP")
	row(696, "CEP: 11730000", "", "CEP:", "11702-530")

	p2 = append(p2, Column(40, 670, 14,
		"Nº DESCRIÇÃO DO PRODUTO VARIAÇÃO QTD VALOR",
		"1 Body Manga Longa Azul, M 2 29,90",
		"2 Short Infantil Menina Listrado Rosa 1 19,90",
		"Totais 3 79,70",
		"Peso Total 0,4 kg",
		"Declaro que não me enquadro no conceito de contribuinte previsto na Lei Complementar 87/96",
		"Assinatura do Declarante",
	)...)

	return Build(page1, Page{Runs: p2})
}

// Blank returns a valid PDF whose pages carry no text.
func Blank(pages int) []byte {
	ps := make([]Page, pages)
	return Build(ps...)
}
