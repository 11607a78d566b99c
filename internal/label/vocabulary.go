package label

// Vocabulary holds the word tables the heuristics consult. They are data, not
// logic: configuration may replace any of them.
type Vocabulary struct {
	// Noise lists upper-case fragments of legal boilerplate lines.
	Noise []string `mapstructure:"noise" json:"noise"`
	// Colors are trailing words that start a product variant.
	Colors []string `mapstructure:"colors" json:"colors"`
	// Stopwords are skipped when naming the exported file.
	Stopwords []string `mapstructure:"stopwords" json:"stopwords"`
	// Modalities is the carrier-service vocabulary; the first entry is the default.
	Modalities []string `mapstructure:"modalities" json:"modalities"`
	// Keywords are carrier/legal words that disqualify a neighborhood candidate.
	Keywords []string `mapstructure:"keywords" json:"keywords"`
}

// Template describes one carrier's page layout and branding.
type Template struct {
	// ColumnBoundary splits declaration-page runs: x below it is the sender.
	ColumnBoundary float64 `mapstructure:"column_boundary" json:"column_boundary"`
	// GeometryPage is the 1-based page whose runs keep their coordinates.
	GeometryPage         int    `mapstructure:"geometry_page" json:"geometry_page"`
	Brand                string `mapstructure:"brand" json:"brand"`
	SenderPlaceholder    string `mapstructure:"sender_placeholder" json:"sender_placeholder"`
	RecipientPlaceholder string `mapstructure:"recipient_placeholder" json:"recipient_placeholder"`
	SenderCity           string `mapstructure:"sender_city" json:"sender_city"`
	SenderState          string `mapstructure:"sender_state" json:"sender_state"`
	LegalNotice          string `mapstructure:"legal_notice" json:"legal_notice"`
}

// DefaultVocabulary returns the tables for Shopee/Correios documents.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Noise: []string{
			"IMPORTANTE: INFORMAMOS",
			"NÃO GUARDA POSSE",
			"CONTEÚDOS CONTIDOS NESTE",
			"O A PESSOA IDENTIFICADA",
			"SÓ SE LIMITA À PUBLICAÇÃO",
			"RESPONSÁVEL PELO BEM ENVIADO",
			"DECLARO QUE NÃO ME ENQUADRO",
			"RISCO O TRANSPORTE AÉREO",
			"INICIEM NO EXTERIOR",
			"TERMOS DA LEI E A QUEM",
			"RESPONSABILIDADE PELA INFORMAÇÃO",
			"PENAL BRASILEIRO",
			"CORREIOS.COM.BR",
			"CONSTITUI CRIME",
			"LEI 8.137",
			"OBSERVAÇÃO:",
		},
		Colors: []string{
			"Bege", "Preto", "Branco", "Azul", "Verde", "Vermelho", "Rosa", "Cinza",
			"Amarelo", "Lilás", "Roxo", "Laranja", "Marrom", "Sortido",
		},
		Stopwords: []string{
			"de", "da", "do", "das", "dos", "e", "para", "com", "em", "a", "o", "um", "uma",
		},
		Modalities: []string{"SEDEX", "PAC", "MINI ENVIOS", "SHOPEE XPRESS"},
		Keywords: []string{
			"SHOPEE", "SEDEX", "PAC",
			"DESTINATÁRIO", "REMETENTE", "CONTRATO",
			"RECEBEDOR", "ASSINATURA", "DOCUMENTO",
			"ID PEDIDO", "DECLARAÇÃO", "IDENTIFICAÇÃO",
		},
	}
}

// DefaultTemplate returns the layout of the reference carrier document.
func DefaultTemplate() Template {
	return Template{
		ColumnBoundary:       300,
		GeometryPage:         2,
		Brand:                "Shopee",
		SenderPlaceholder:    "VITTA@STORE",
		RecipientPlaceholder: "Nome não encontrado",
		SenderCity:           "Mongaguá",
		SenderState:          "São Paulo",
		LegalNotice:          "Shopee não é proprietário nem responsável pelos bens entregues (art.261 CP).",
	}
}

// Merge returns v with every empty table replaced by the one from def.
func (v Vocabulary) Merge(def Vocabulary) Vocabulary {
	if len(v.Noise) == 0 {
		v.Noise = def.Noise
	}
	if len(v.Colors) == 0 {
		v.Colors = def.Colors
	}
	if len(v.Stopwords) == 0 {
		v.Stopwords = def.Stopwords
	}
	if len(v.Modalities) == 0 {
		v.Modalities = def.Modalities
	}
	if len(v.Keywords) == 0 {
		v.Keywords = def.Keywords
	}
	return v
}

// Merge returns t with every zero field replaced by the one from def.
func (t Template) Merge(def Template) Template {
	if t.ColumnBoundary <= 0 {
		t.ColumnBoundary = def.ColumnBoundary
	}
	if t.GeometryPage <= 0 {
		t.GeometryPage = def.GeometryPage
	}
	if t.Brand == "" {
		t.Brand = def.Brand
	}
	if t.SenderPlaceholder == "" {
		t.SenderPlaceholder = def.SenderPlaceholder
	}
	if t.RecipientPlaceholder == "" {
		t.RecipientPlaceholder = def.RecipientPlaceholder
	}
	if t.SenderCity == "" {
		t.SenderCity = def.SenderCity
	}
	if t.SenderState == "" {
		t.SenderState = def.SenderState
	}
	if t.LegalNotice == "" {
		t.LegalNotice = def.LegalNotice
	}
	return t
}
