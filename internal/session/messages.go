package session

import "github.com/a3tai/mcp-shiplabel/internal/label"

// Status lines shown to the user.
const (
	msgSelectPDF   = "Selecione um arquivo PDF."
	msgReading     = "Lendo PDF…"
	msgReadError   = "Erro ao ler PDF: "
	msgExporting   = "Gerando imagem…"
	msgErrorPrefix = "Erro: "
)

func parsedMessage(d *label.LabelData) string {
	subject := "Etiqueta"
	if d != nil && d.Tracking != "" {
		subject = d.Tracking
	}
	return "✓ " + subject + " extraído com sucesso!"
}

func exportedMessage(filename string) string {
	return "✓ " + filename + " baixado!"
}
