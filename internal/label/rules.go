package label

import (
	"strings"
)

// Candidate is one string a rule may accept, with the declaration-page
// label it followed.
type Candidate struct {
	Label string
	Text  string
}

// FieldRule pairs a predicate with a transform. Rules are tried in order.
type FieldRule struct {
	Name      string
	Match     func(c Candidate) bool
	Transform func(c Candidate) string
}

// Resolution reports which rule produced a field value.
type Resolution struct {
	Value string
	Rule  string
}

// Fallback reports whether the literal fallback was used.
func (r Resolution) Fallback() bool {
	return r.Rule == ""
}

// Resolve returns the first non-empty transform result, trying every rule
// against every candidate in order, or the fallback literal.
func Resolve(rules []FieldRule, candidates []Candidate, fallback string) Resolution {
	for _, rule := range rules {
		for _, c := range candidates {
			if !rule.Match(c) {
				continue
			}
			if v := strings.TrimSpace(rule.Transform(c)); v != "" {
				return Resolution{Value: v, Rule: rule.Name}
			}
		}
	}
	return Resolution{Value: fallback}
}

// nameRules builds the rule list shared by sender and recipient names. Only
// the NOME: value counts; a name missing there takes the side's placeholder.
func nameRules() []FieldRule {
	return []FieldRule{
		{
			Name:      "label-value",
			Match:     func(c Candidate) bool { return c.Label == labelName && !labelToken.MatchString(c.Text) },
			Transform: func(c Candidate) string { return c.Text },
		},
	}
}

func containsAny(upper string, fragments []string) bool {
	for _, f := range fragments {
		if f != "" && strings.Contains(upper, strings.ToUpper(f)) {
			return true
		}
	}
	return false
}
