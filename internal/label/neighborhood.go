package label

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// neighborhoodWindow is how many lines after the street line are considered.
const neighborhoodWindow = 5

var (
	digitsOnlyLine = regexp.MustCompile(`^\d+$`)
	cepShaped      = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	trackingShaped = regexp.MustCompile(`^[A-Z]{2}\d{9}[A-Z]{2}$`)
	bareIDShaped   = regexp.MustCompile(`^[A-Z0-9]{8,}$`)
	streetPrefix   = regexp.MustCompile(`(?i)^(rua|avenida|av\.|al\.|alameda|trav\.|travessa|r\.)\s`)
)

// neighborhoodFinder guesses the recipient neighborhood. Source documents
// print it unlabeled between street and city, so the result may be empty.
type neighborhoodFinder struct {
	keywords []string
	known    map[string]struct{}
}

func newNeighborhoodFinder(keywords []string, knownValues ...string) *neighborhoodFinder {
	known := make(map[string]struct{}, len(knownValues))
	for _, v := range knownValues {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			known[v] = struct{}{}
		}
	}
	return &neighborhoodFinder{keywords: keywords, known: known}
}

// rejects reports whether line cannot be a neighborhood.
func (f *neighborhoodFinder) rejects(line string) bool {
	t := strings.TrimSpace(line)
	if utf8.RuneCountInString(t) < 3 {
		return true
	}
	switch {
	case digitsOnlyLine.MatchString(t),
		cepShaped.MatchString(t),
		trackingShaped.MatchString(t),
		bareIDShaped.MatchString(t),
		streetPrefix.MatchString(t):
		return true
	}
	if containsAny(strings.ToUpper(t), f.keywords) {
		return true
	}
	_, known := f.known[strings.ToLower(t)]
	return known
}

// find looks in the lines right after the one holding streetHead, then falls
// back to the whole line set with the given cities also excluded.
func (f *neighborhoodFinder) find(lines []string, streetHead string, cities ...string) string {
	if head := strings.ToLower(strings.TrimSpace(streetHead)); head != "" {
		for i, l := range lines {
			if !strings.Contains(strings.ToLower(l), head) {
				continue
			}
			end := min(i+1+neighborhoodWindow, len(lines))
			for _, candidate := range lines[i+1 : end] {
				if !f.rejects(candidate) {
					return strings.TrimSpace(candidate)
				}
			}
			break
		}
	}

	for _, l := range lines {
		if f.rejects(l) || isCity(l, cities) {
			continue
		}
		return strings.TrimSpace(l)
	}
	return ""
}

func isCity(line string, cities []string) bool {
	l := strings.ToLower(line)
	for _, c := range cities {
		if c != "" && l == strings.ToLower(c) {
			return true
		}
	}
	return false
}
