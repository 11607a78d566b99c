package label

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// FilenameBuilder derives download names from the recipient and first product.
type FilenameBuilder struct {
	stopwords map[string]struct{}
}

// NewFilenameBuilder creates a builder that skips the given stopwords.
func NewFilenameBuilder(stopwords []string) *FilenameBuilder {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &FilenameBuilder{stopwords: set}
}

// BuildFilename uses the default stopword table.
//
//	BuildFilename("Vania Souza", "Short Infantil Menina Listrado", FormatThermal)
//	  == "vania_short_infantil_menina.pdf"
func BuildFilename(recipientName, productDesc string, f Format) string {
	return NewFilenameBuilder(DefaultVocabulary().Stopwords).Build(recipientName, productDesc, f)
}

// Build returns "<first-name>_<up to 3 product words>[_A4].pdf". It accepts
// any input, including empty or garbled strings.
func (b *FilenameBuilder) Build(recipientName, productDesc string, f Format) string {
	first := ""
	if fields := strings.Fields(recipientName); len(fields) > 0 {
		first = slugify(fields[0])
	}
	if first == "" {
		first = "destinatario"
	}

	words := make([]string, 0, 3)
	for _, w := range strings.Fields(productDesc) {
		if len(words) == 3 {
			break
		}
		w = strings.ToLower(w)
		if utf8.RuneCountInString(w) <= 1 {
			continue
		}
		if _, stop := b.stopwords[w]; stop {
			continue
		}
		words = append(words, w)
	}

	slugs := make([]string, 0, len(words))
	for _, w := range words {
		if s := slugify(w); s != "" {
			slugs = append(slugs, s)
		}
	}

	suffix := ""
	if f == FormatA4 {
		suffix = "_A4"
	}
	return first + "_" + strings.Join(slugs, "_") + suffix + ".pdf"
}

// slugify strips diacritics, lower-cases, drops anything outside [a-z0-9] and
// whitespace, then joins the remaining words with underscores.
func slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = strings.ToLower(plain)
	plain = nonSlugChars.ReplaceAllString(plain, "")
	plain = strings.TrimSpace(plain)
	return spaceRuns.ReplaceAllString(plain, "_")
}
