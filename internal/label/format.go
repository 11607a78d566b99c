package label

import (
	"strings"
	"unicode"
)

// FmtCep formats a Brazilian postal code as NNNNN-NNN. Non-digits are dropped
// first; a result that is not exactly 8 digits is returned as digits only.
func FmtCep(s string) string {
	d := digitsOnly(s)
	if len(d) != 8 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// PadCep returns the 8-digit barcode payload for a postal code: digits only,
// right-padded with zeros and truncated to 8.
func PadCep(s string) string {
	d := digitsOnly(s)
	if d == "" {
		d = "00000000"
	}
	if len(d) < 8 {
		d += strings.Repeat("0", 8-len(d))
	}
	return d[:8]
}

// FormatCurrency normalizes an amount such as "29.90", "1.299,90" or "45" to
// the canonical "R$ 1.299,90" form. Input without digits yields "R$ 0,00".
func FormatCurrency(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)

	intPart, cents := s, "00"
	if idx := strings.LastIndexAny(s, ".,"); idx >= 0 {
		frac := digitsOnly(s[idx+1:])
		switch len(frac) {
		case 1:
			intPart, cents = s[:idx], frac+"0"
		case 2:
			intPart, cents = s[:idx], frac
		}
	}

	intDigits := strings.TrimLeft(digitsOnly(intPart), "0")
	if intDigits == "" {
		intDigits = "0"
	}
	return "R$ " + groupThousands(intDigits) + "," + cents
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// collapseSpaces trims s and folds every whitespace run to one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// truncateRunes bounds s to n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
