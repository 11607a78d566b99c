package label

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePageData() *PageData {
	lines := []string{
		"Shopee",
		"ID pedido: 240101ABCDEF12",
		"Contrato: 9912345678",
		"SEDEX",
		"AB123456789BR",
		"DESTINATÁRIO",
		"Vania Souza",
		"Rua Santa Terezinha, 2359",
		"Jardim Marina",
		"Praia Grande SP 11702-530",
		"DECLARAÇÃO DE CONTEÚDO",
		"Nº DESCRIÇÃO DO PRODUTO VARIAÇÃO QTD VALOR",
		"1 Body Manga Longa Azul, M 2 29,90",
		"2 Short Infantil Menina Listrado Rosa 1 19,90",
		"Peso Total 0,4kg",
		"Totais 3 79,70",
	}
	return &PageData{
		Page2Items: []TextItem{
			{Text: "NOME:", X: 40, Y: 700},
			{Text: "NOME:", X: 320, Y: 700},
			{Text: "Loja Vitta", X: 90, Y: 700},
			{Text: "Vania Souza", X: 360, Y: 700},
			{Text: "ENDEREÇO:", X: 40, Y: 688},
			{Text: "Avenida Edwilson José do Carmo, 92,", X: 90, Y: 688},
			{Text: "ENDEREÇO:", X: 320, Y: 688},
			{Text: "Rua Santa Terezinha, 2359, Mongaguá,", X: 360, Y: 688},
			{Text: "Mongaguá, São Paulo", X: 90, Y: 676},
			{Text: "MUNICÍPIO: Mongaguá", X: 40, Y: 664},
			{Text: "MUNICÍPIO:", X: 320, Y: 664},
			{Text: "Praia Grande", X: 360, Y: 664},
			{Text: "UF: SP", X: 40, Y: 652},
			{Text: "UF:", X: 320, Y: 652},
			{Text: "SP", X: 360, Y: 652},
			{Text: "CEP: 11730000", X: 40, Y: 640},
			{Text: "CEP:", X: 320, Y: 640},
			{Text: "11702-530", X: 360, Y: 640},
		},
		AllLines: lines,
		FullText: strings.Join(lines, " "),
	}
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(Vocabulary{}, Template{})

	d, issues := p.Parse(samplePageData())
	require.NotNil(t, d)
	require.NotNil(t, issues)

	assert.Equal(t, "AB123456789BR", d.Tracking)
	assert.Equal(t, "9912345678", d.Contract)
	assert.Equal(t, "240101ABCDEF12", d.OrderID)
	assert.Equal(t, "SEDEX", d.Modality)

	assert.Equal(t, Recipient{
		Name:         "Vania Souza",
		Street:       "Rua Santa Terezinha, 2359",
		Neighborhood: "Jardim Marina",
		City:         "Praia Grande",
		State:        "SP",
		PostalCode:   "11702-530",
	}, d.Recipient)

	assert.Equal(t, Sender{
		Name:       "Loja Vitta",
		Address:    "Avenida Edwilson José do Carmo, 92, Mongaguá, São Paulo",
		City:       "Mongaguá",
		State:      "SP",
		PostalCode: "11730-000",
	}, d.Sender)

	require.Len(t, d.Products, 2)
	assert.Equal(t, ProdItem{N: "1", Desc: "Body Manga Longa", Var: "Azul, M", Qtd: "2", Val: "R$ 29,90"}, d.Products[0])
	assert.Equal(t, 3, d.TotalQtd)
	assert.Equal(t, "R$ 79,70", d.TotalVal)

	assert.Empty(t, issues.Fields())
	assert.Equal(t, "vania_body_manga_longa.pdf", BuildFilename(d.Recipient.Name, d.FirstProductDesc(), FormatThermal))
}

func TestParser_Idempotent(t *testing.T) {
	p := NewParser(DefaultVocabulary(), DefaultTemplate())

	a, _ := p.Parse(samplePageData())
	b, _ := p.Parse(samplePageData())
	assert.Equal(t, a, b)
}

func TestParser_Defaults(t *testing.T) {
	p := NewParser(Vocabulary{}, Template{})

	d, issues := p.Parse(&PageData{})
	require.NotNil(t, d)

	assert.Empty(t, d.Tracking)
	assert.Equal(t, "SEDEX", d.Modality)
	assert.Equal(t, "Nome não encontrado", d.Recipient.Name)
	assert.Empty(t, d.Recipient.Neighborhood)
	assert.Equal(t, "VITTA@STORE", d.Sender.Name)
	assert.Equal(t, "Mongaguá", d.Sender.City)
	assert.Equal(t, "São Paulo", d.Sender.State)
	assert.Equal(t, 1, d.TotalQtd)
	assert.Equal(t, "R$ 0,00", d.TotalVal)
	require.Len(t, d.Products, 1)
	assert.Equal(t, fallbackDescNoBlock, d.Products[0].Desc)

	fields := issues.Fields()
	assert.Contains(t, fields, "tracking")
	assert.Contains(t, fields, "modality")
	assert.Contains(t, fields, "recipient.name")
	assert.Contains(t, fields, "sender.name")
	assert.Contains(t, fields, "totals")
	errs, _ := issues.Count()
	assert.Zero(t, errs)
}

func TestParser_NilPageData(t *testing.T) {
	d, _ := NewParser(Vocabulary{}, Template{}).Parse(nil)
	require.NotNil(t, d)
	assert.NotEmpty(t, d.Products)
}

func TestParser_TrackingAnywhere(t *testing.T) {
	p := NewParser(Vocabulary{}, Template{})

	for _, text := range []string{
		"AB123456789BR",
		"codigo XYAB123456789BRZZ fim",
		"rastreio:QQ000000001BR.",
	} {
		d, _ := p.Parse(&PageData{FullText: text})
		want := trackingCode.FindString(text)
		assert.Equal(t, want, d.Tracking, text)
	}

	d, _ := p.Parse(&PageData{FullText: "codigo XYAB123456789BRZZ fim"})
	assert.Equal(t, "AB123456789BR", d.Tracking)
}

func TestParser_Modality(t *testing.T) {
	p := NewParser(Vocabulary{}, Template{})

	tests := []struct {
		text string
		want string
	}{
		{"envio via Mini Envios hoje", "MINI ENVIOS"},
		{"Shopee Xpress e depois sedex", "SHOPEE XPRESS"},
		{"PACOTE sem modal", "SEDEX"},
		{"modal pac", "PAC"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			d, _ := p.Parse(&PageData{FullText: tt.text})
			assert.Equal(t, tt.want, d.Modality)
		})
	}
}

func TestParser_NameOnlyFromDeclaration(t *testing.T) {
	p := NewParser(Vocabulary{}, Template{})

	d, issues := p.Parse(&PageData{AllLines: []string{"DESTINATÁRIO", "Maria Clara Lima,", "REMETENTE", "Loja Vitta"}})
	assert.Equal(t, "Nome não encontrado", d.Recipient.Name)
	assert.Equal(t, "VITTA@STORE", d.Sender.Name)
	assert.Contains(t, issues.Fields(), "recipient.name")
	assert.Contains(t, issues.Fields(), "sender.name")
}

func TestParser_ColumnBoundary(t *testing.T) {
	p := NewParser(Vocabulary{}, Template{ColumnBoundary: 200})

	d, _ := p.Parse(&PageData{Page2Items: []TextItem{
		{Text: "NOME: Loja", X: 40},
		{Text: "NOME: Cliente", X: 250},
	}})
	assert.Equal(t, "Loja", d.Sender.Name)
	assert.Equal(t, "Cliente", d.Recipient.Name)
}

func TestParser_CustomVocabulary(t *testing.T) {
	p := NewParser(Vocabulary{Modalities: []string{"EXPRESSO", "ECONOMICO"}}, Template{})

	d, _ := p.Parse(&PageData{FullText: "frete economico"})
	assert.Equal(t, "ECONOMICO", d.Modality)

	d, _ = p.Parse(&PageData{})
	assert.Equal(t, "EXPRESSO", d.Modality)
	assert.Equal(t, DefaultVocabulary().Colors, p.Vocabulary().Colors)
}
