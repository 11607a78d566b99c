package label

import (
	"regexp"
	"strings"
)

// Declaration-page labels. Accents are optional because some generators emit
// plain ASCII.
const (
	labelName    = `NOME`
	labelAddress = `ENDERE[CÇ]O`
	labelCity    = `MUNIC[IÍ]PIO`
	labelState   = `UF`
	labelCep     = `CEP`
)

var (
	labelToken = regexp.MustCompile(
		`(?i)^(NOME|ENDERE[CÇ]O|MUNIC[IÍ]PIO|UF|CEP|CPF|CNPJ|REMETENTE|DESTINAT[AÁ]RIO):`)
	labelPatterns = map[string]*regexp.Regexp{
		labelName:    regexp.MustCompile(`(?i)^` + labelName + `:`),
		labelAddress: regexp.MustCompile(`(?i)^` + labelAddress + `:`),
		labelCity:    regexp.MustCompile(`(?i)^` + labelCity + `:`),
		labelState:   regexp.MustCompile(`(?i)^` + labelState + `:`),
		labelCep:     regexp.MustCompile(`(?i)^` + labelCep + `:`),
	}
	trailingComma = regexp.MustCompile(`,\s*$`)
)

// column is the ordered run list of one side of the declaration page.
type column []TextItem

// splitColumns partitions runs by x: below boundary is the sender side, at or
// above it the recipient side. Order is preserved.
func splitColumns(items []TextItem, boundary float64) (sender, recipient column) {
	for _, it := range items {
		if it.X < boundary {
			sender = append(sender, it)
		} else {
			recipient = append(recipient, it)
		}
	}
	return sender, recipient
}

// valueAfter returns the value of a label: text following the label inside the
// same run, or else the next run on this side that is not itself a label.
func (c column) valueAfter(label string) string {
	pattern := labelPatterns[label]
	for i := range c {
		t := strings.TrimSpace(c[i].Text)
		loc := pattern.FindStringIndex(t)
		if loc == nil {
			continue
		}
		if inline := strings.TrimSpace(t[loc[1]:]); inline != "" {
			return inline
		}
		for j := i + 1; j < len(c); j++ {
			next := strings.TrimSpace(c[j].Text)
			if next != "" && !labelToken.MatchString(next) {
				return next
			}
		}
	}
	return ""
}

// senderAddress collects the first two value runs after ENDEREÇO: (the sender
// address wraps onto a second visual line), strips their trailing commas and
// joins them with ", ".
func (c column) senderAddress() string {
	pattern := labelPatterns[labelAddress]
	for i := range c {
		t := strings.TrimSpace(c[i].Text)
		loc := pattern.FindStringIndex(t)
		if loc == nil {
			continue
		}

		lines := make([]string, 0, 2)
		if inline := strings.TrimSpace(t[loc[1]:]); inline != "" {
			lines = append(lines, strings.TrimSpace(trailingComma.ReplaceAllString(inline, "")))
		}
		for j := i + 1; j < len(c) && len(lines) < 2; j++ {
			next := strings.TrimSpace(c[j].Text)
			if next == "" {
				continue
			}
			if labelToken.MatchString(next) {
				break
			}
			lines = append(lines, strings.TrimSpace(trailingComma.ReplaceAllString(next, "")))
		}
		return strings.Join(lines, ", ")
	}
	return ""
}

// streetParts splits a recipient address on commas.
func streetParts(raw string) []string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// recipientStreet keeps "street, number" and drops locality fragments that
// leaked into the same run.
func recipientStreet(raw string) string {
	parts := streetParts(raw)
	if len(parts) >= 2 {
		return parts[0] + ", " + parts[1]
	}
	return raw
}
