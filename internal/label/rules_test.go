package label

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	upper := FieldRule{
		Name:      "upper",
		Match:     func(c Candidate) bool { return c.Label == labelName },
		Transform: func(c Candidate) string { return strings.ToUpper(c.Text) },
	}
	blank := FieldRule{
		Name:      "blank",
		Match:     func(Candidate) bool { return true },
		Transform: func(Candidate) string { return "  " },
	}

	t.Run("first non-empty rule wins", func(t *testing.T) {
		r := Resolve([]FieldRule{blank, upper}, []Candidate{{Label: labelName, Text: "ana"}}, "x")
		assert.Equal(t, "ANA", r.Value)
		assert.Equal(t, "upper", r.Rule)
		assert.False(t, r.Fallback())
	})

	t.Run("fallback", func(t *testing.T) {
		r := Resolve([]FieldRule{upper}, []Candidate{{Label: labelCity, Text: "ana"}}, "x")
		assert.Equal(t, "x", r.Value)
		assert.True(t, r.Fallback())
	})

	t.Run("no rules", func(t *testing.T) {
		assert.Equal(t, "x", Resolve(nil, nil, "x").Value)
	})
}

func TestNameRules(t *testing.T) {
	rules := nameRules()

	tests := []struct {
		name string
		c    Candidate
		want string
	}{
		{"name value taken as is", Candidate{labelName, "Vania Souza"}, "Vania Souza"},
		{"other label ignored", Candidate{labelCity, "Praia Grande"}, "fb"},
		{"label token is not a name", Candidate{labelName, "CPF: 123"}, "fb"},
		{"blank", Candidate{labelName, "   "}, "fb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(rules, []Candidate{tt.c}, "fb").Value)
		})
	}
}

func TestColumn_ValueAfter(t *testing.T) {
	col := column{
		{Text: "NOME:"},
		{Text: "CPF: 123"},
		{Text: "Vania"},
		{Text: "Endereco: Rua A, 1"},
	}
	assert.Equal(t, "Vania", col.valueAfter(labelName))
	assert.Equal(t, "Rua A, 1", col.valueAfter(labelAddress))
	assert.Empty(t, col.valueAfter(labelCep))
}

func TestColumn_SenderAddress(t *testing.T) {
	col := column{
		{Text: "ENDEREÇO: Av. Brasil, 10,"},
		{Text: "Centro, Santos"},
		{Text: "Sobra"},
	}
	assert.Equal(t, "Av. Brasil, 10, Centro, Santos", col.senderAddress())

	col = column{{Text: "ENDEREÇO:"}, {Text: "Av. Brasil, 10"}, {Text: "CEP: 1"}}
	assert.Equal(t, "Av. Brasil, 10", col.senderAddress())
}

func TestSplitColumns(t *testing.T) {
	sender, recipient := splitColumns([]TextItem{{Text: "a", X: 10}, {Text: "b", X: 300}, {Text: "c", X: 299.9}}, 300)
	assert.Equal(t, column{{Text: "a", X: 10}, {Text: "c", X: 299.9}}, sender)
	assert.Equal(t, column{{Text: "b", X: 300}}, recipient)
}

func TestRecipientStreet(t *testing.T) {
	assert.Equal(t, "Rua Santa Terezinha, 2359", recipientStreet("Rua Santa Terezinha, 2359, Mongaguá,"))
	assert.Equal(t, "Rua Sem Numero", recipientStreet("Rua Sem Numero"))
}

func TestNeighborhoodFinder(t *testing.T) {
	keywords := DefaultVocabulary().Keywords

	t.Run("window after street", func(t *testing.T) {
		f := newNeighborhoodFinder(keywords, "Vania Souza")
		lines := []string{"Vania Souza", "Rua Santa Terezinha, 2359", "SEDEX", "12345", "Vila Nova", "Santos"}
		assert.Equal(t, "Vila Nova", f.find(lines, "Rua Santa Terezinha"))
	})

	t.Run("fallback scan skips cities", func(t *testing.T) {
		f := newNeighborhoodFinder(keywords)
		lines := []string{"AB123456789BR", "12345678", "Praia Grande", "Centro"}
		assert.Equal(t, "Centro", f.find(lines, "", "Praia Grande"))
	})

	t.Run("may be empty", func(t *testing.T) {
		f := newNeighborhoodFinder(keywords, "Santos")
		lines := []string{"SEDEX", "11702-530", "Rua A 1", "240101ABCDEF12", "Santos"}
		assert.Empty(t, f.find(lines, "Rua A"))
	})
}
