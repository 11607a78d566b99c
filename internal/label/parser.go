package label

import (
	"regexp"
	"strings"

	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
)

var (
	trackingCode = regexp.MustCompile(`[A-Z]{2}\d{9}[A-Z]{2}`)
	contractNo   = regexp.MustCompile(`(?i)Contrato:\s*(\d+)`)
	orderID      = regexp.MustCompile(`(?i)ID\s*pedido[:\s]*([A-Z0-9]{8,})`)
)

// Parser turns PageData into LabelData. It is safe for concurrent use.
type Parser struct {
	vocab    Vocabulary
	tmpl     Template
	products *productExtractor
	modality *regexp.Regexp
	names    []FieldRule
}

// NewParser creates a parser. Empty tables and zero template fields take the
// defaults.
func NewParser(vocab Vocabulary, tmpl Template) *Parser {
	vocab = vocab.Merge(DefaultVocabulary())
	tmpl = tmpl.Merge(DefaultTemplate())

	quoted := make([]string, 0, len(vocab.Modalities))
	for _, m := range vocab.Modalities {
		quoted = append(quoted, regexp.QuoteMeta(m))
	}

	return &Parser{
		vocab:    vocab,
		tmpl:     tmpl,
		products: newProductExtractor(vocab.Colors),
		modality: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
		names:    nameRules(),
	}
}

// Vocabulary returns the tables in use.
func (p *Parser) Vocabulary() Vocabulary { return p.vocab }

// Template returns the layout in use.
func (p *Parser) Template() Template { return p.tmpl }

// Parse extracts a LabelData from pd. It never fails: every field that cannot
// be recovered takes its default and is reported in the returned collection as
// a FieldNotFound warning.
func (p *Parser) Parse(pd *PageData) (*LabelData, *lerrors.Collection) {
	issues := lerrors.NewCollection("")
	if pd == nil {
		pd = &PageData{}
	}
	missing := func(field string) {
		issues.Add(lerrors.New(lerrors.ErrorTypeFieldNotFound, "no match, default used").WithField(field))
	}

	d := &LabelData{}

	// Pass B globals first: the neighborhood heuristic excludes them.
	d.Tracking = trackingCode.FindString(pd.FullText)
	if d.Tracking == "" {
		missing("tracking")
	}
	if m := contractNo.FindStringSubmatch(pd.FullText); m != nil {
		d.Contract = m[1]
	} else {
		missing("contract")
	}
	if m := orderID.FindStringSubmatch(pd.FullText); m != nil {
		d.OrderID = m[1]
	} else {
		missing("order_id")
	}
	d.Modality = p.findModality(pd.FullText)
	if d.Modality == "" {
		d.Modality = p.vocab.Modalities[0]
		missing("modality")
	}

	// Pass A: declaration-page columns.
	senderCol, recipientCol := splitColumns(pd.Page2Items, p.tmpl.ColumnBoundary)

	name := Resolve(p.names, nameCandidates(recipientCol), p.tmpl.RecipientPlaceholder)
	if name.Fallback() {
		missing("recipient.name")
	}
	rawStreet := recipientCol.valueAfter(labelAddress)
	d.Recipient = Recipient{
		Name:       name.Value,
		Street:     recipientStreet(rawStreet),
		City:       recipientCol.valueAfter(labelCity),
		State:      recipientCol.valueAfter(labelState),
		PostalCode: FmtCep(recipientCol.valueAfter(labelCep)),
	}

	senderName := Resolve(p.names, nameCandidates(senderCol), p.tmpl.SenderPlaceholder)
	if senderName.Fallback() {
		missing("sender.name")
	}
	d.Sender = Sender{
		Name:       senderName.Value,
		Address:    senderCol.senderAddress(),
		City:       senderCol.valueAfter(labelCity),
		State:      senderCol.valueAfter(labelState),
		PostalCode: FmtCep(senderCol.valueAfter(labelCep)),
	}
	if d.Sender.City == "" {
		d.Sender.City = p.tmpl.SenderCity
	}
	if d.Sender.State == "" {
		d.Sender.State = p.tmpl.SenderState
	}

	for _, f := range []struct{ field, value string }{
		{"recipient.street", d.Recipient.Street},
		{"recipient.city", d.Recipient.City},
		{"recipient.state", d.Recipient.State},
		{"recipient.postal_code", d.Recipient.PostalCode},
		{"sender.address", d.Sender.Address},
		{"sender.postal_code", d.Sender.PostalCode},
	} {
		if f.value == "" {
			missing(f.field)
		}
	}

	// Pass B: neighborhood, which may legitimately stay empty.
	finder := newNeighborhoodFinder(p.vocab.Keywords,
		d.Recipient.Name, d.Recipient.Street, d.Recipient.City, d.Recipient.State,
		d.Sender.Name, d.Sender.Address, d.Sender.City, d.Sender.State,
		d.Tracking, d.Contract, d.OrderID)
	streetHead := ""
	if parts := streetParts(rawStreet); rawStreet != "" {
		streetHead = parts[0]
	}
	d.Recipient.Neighborhood = finder.find(pd.AllLines, streetHead, d.Recipient.City, d.Sender.City)

	prods, totals := p.products.Extract(pd.FullText)
	d.Products = prods
	d.TotalQtd = totals.Qtd
	d.TotalVal = totals.Val
	if !totals.Found {
		missing("totals")
	}

	return d, issues
}

// findModality returns the leftmost vocabulary match in its configured
// spelling, or "" when none occurs.
func (p *Parser) findModality(text string) string {
	m := p.modality.FindString(text)
	if m == "" {
		return ""
	}
	for _, v := range p.vocab.Modalities {
		if strings.EqualFold(v, m) {
			return v
		}
	}
	return m
}

// nameCandidates lists the NOME: value of one declaration column.
func nameCandidates(col column) []Candidate {
	if v := col.valueAfter(labelName); v != "" {
		return []Candidate{{Label: labelName, Text: v}}
	}
	return nil
}
