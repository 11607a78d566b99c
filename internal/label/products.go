package label

import (
	"regexp"
	"strconv"
	"strings"
)

// fallbackDescLimit bounds the description of the synthetic fallback row.
const fallbackDescLimit = 150

// fallbackDescNoBlock is used when no table block exists at all.
const fallbackDescNoBlock = "Produtos conforme declaração"

var (
	declarationMarker = regexp.MustCompile(`(?i)DECLARA[CÇ][AÃ]O DE CONTE[UÚ]DO`)
	tableBounded      = regexp.MustCompile(
		`(?is)(?:VALOR|DESCRIÇÃO DO PRODUTO|Conteúdo)\b\s*(.+?)\s*(?:Peso Total\b|Assinatura\b|Total\s*\(|Declaro\b)`)
	tableOpen   = regexp.MustCompile(`(?is)(?:VALOR|DESCRIÇÃO DO PRODUTO|Conteúdo)\b\s*(.+)`)
	headerWords = regexp.MustCompile(`(?i)VARIAÇÃO|QTD|CÓDIGO\s*\(SKU\)|Nº|DESCRIÇÃO DO PRODUTO|VALOR|Conteúdo|Item`)

	// index, description, quantity, unit value; the value must be followed by
	// whitespace or the end of the block.
	productRow = regexp.MustCompile(`(?:^|\s)(\d+)\s+(.+?)\s+(\d+)\s+([\d.,]+[.,]\d{2})(?:\s|$)`)

	variantComma = regexp.MustCompile(`^(.+?)\s+([A-Za-z0-9À-ÿ/-]+,\s*[A-Za-z0-9À-ÿ/\s-]+)$`)

	totalsRow   = regexp.MustCompile(`(?i)Totais\s+(\d+)\s+([\d.,]+[.,]\d{2})`)
	totalsItems = regexp.MustCompile(`(?i)Total\s*\((\d+)\s*itens\)`)
	firstAmount = regexp.MustCompile(`R\$\s*([\d.,]+)`)
)

// Totals are the aggregate quantity and value of a declaration.
type Totals struct {
	Qtd   int
	Val   string
	Found bool
}

// productExtractor reads the declaration-of-content table.
type productExtractor struct {
	colorVariant *regexp.Regexp
}

func newProductExtractor(colors []string) *productExtractor {
	p := &productExtractor{}
	quoted := make([]string, 0, len(colors))
	for _, c := range colors {
		if c = strings.TrimSpace(c); c != "" {
			quoted = append(quoted, regexp.QuoteMeta(c))
		}
	}
	if len(quoted) > 0 {
		p.colorVariant = regexp.MustCompile(`(?i)^(.*?)\s+((?:` + strings.Join(quoted, "|") + `).*?)$`)
	}
	return p
}

// extractTotals reads "Totais <qty> <value>" or "Total (<n> itens)" from the
// full text, defaulting to 1 and R$ 0,00.
func extractTotals(fullText string) Totals {
	t := Totals{Qtd: 1, Val: "R$ 0,00"}

	if m := totalsRow.FindStringSubmatch(fullText); m != nil {
		t.Found = true
		if q, err := strconv.Atoi(m[1]); err == nil {
			t.Qtd = q
		}
		t.Val = FormatCurrency(m[2])
		return t
	}

	// "Total (n itens)" carries no value of its own
	if m := totalsItems.FindStringSubmatch(fullText); m != nil {
		t.Found = true
		if q, err := strconv.Atoi(m[1]); err == nil {
			t.Qtd = q
		}
		return t
	}
	if m := firstAmount.FindStringSubmatch(fullText); m != nil {
		t.Val = FormatCurrency(m[1])
	}
	return t
}

// tableBlock isolates the product rows: text after the declaration marker,
// from the first table header to the first terminator.
func tableBlock(fullText string) string {
	area := fullText
	if loc := declarationMarker.FindStringIndex(fullText); loc != nil {
		area = fullText[loc[1]:]
	}

	block := ""
	if m := tableBounded.FindStringSubmatch(area); m != nil {
		block = m[1]
	} else if m := tableOpen.FindStringSubmatch(area); m != nil {
		block = m[1]
	}
	return strings.TrimSpace(headerWords.ReplaceAllString(block, ""))
}

// Rows parses every product row in block. It does not apply the fallback.
func (p *productExtractor) Rows(block string) []ProdItem {
	var prods []ProdItem
	for pos := 0; pos < len(block); {
		m := productRow.FindStringSubmatchIndex(block[pos:])
		if m == nil {
			break
		}
		group := func(i int) string { return block[pos+m[2*i] : pos+m[2*i+1]] }

		desc, variant := p.splitVariant(strings.TrimSpace(group(2)))
		prods = append(prods, ProdItem{
			N:    group(1),
			Desc: desc,
			Var:  variant,
			Qtd:  group(3),
			Val:  FormatCurrency(group(4)),
		})
		// resume right after the value so its trailing space can open the next row
		pos += m[9]
	}
	return prods
}

// splitVariant separates a trailing variant from a description, first by the
// "word, word-group" pattern, then by the color table.
func (p *productExtractor) splitVariant(raw string) (desc, variant string) {
	if m := variantComma.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if p.colorVariant != nil {
		if m := p.colorVariant.FindStringSubmatch(raw); m != nil {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}
	return raw, "-"
}

// Extract returns the product rows and totals. The row list is never empty: a
// block with no parsable row becomes one row holding the raw block text and
// the aggregate totals.
func (p *productExtractor) Extract(fullText string) ([]ProdItem, Totals) {
	totals := extractTotals(fullText)
	fallback := ProdItem{N: "1", Var: "-", Qtd: strconv.Itoa(totals.Qtd), Val: totals.Val}

	block := tableBlock(fullText)
	if block == "" {
		fallback.Desc = fallbackDescNoBlock
		return []ProdItem{fallback}, totals
	}

	if prods := p.Rows(block); len(prods) > 0 {
		return prods, totals
	}

	fallback.Desc = truncateRunes(collapseSpaces(block), fallbackDescLimit)
	return []ProdItem{fallback}, totals
}
