package pdf

import "strings"

// NoiseFilter drops legal boilerplate lines before field extraction.
type NoiseFilter struct {
	fragments []string
}

// NewNoiseFilter creates a filter for the given fragments. Matching is done
// on the upper-cased line, so fragments are upper-cased here once.
func NewNoiseFilter(fragments []string) *NoiseFilter {
	up := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			up = append(up, strings.ToUpper(f))
		}
	}
	return &NoiseFilter{fragments: up}
}

// Filter keeps, in order, every line that contains none of the fragments and
// returns them along with their space-joined text.
func (f *NoiseFilter) Filter(lines []string) (kept []string, fullText string) {
	kept = make([]string, 0, len(lines))
	for _, l := range lines {
		if !f.IsNoise(l) {
			kept = append(kept, l)
		}
	}
	return kept, strings.Join(kept, " ")
}

// IsNoise reports whether line matches one of the fragments.
func (f *NoiseFilter) IsNoise(line string) bool {
	up := strings.ToUpper(line)
	for _, frag := range f.fragments {
		if strings.Contains(up, frag) {
			return true
		}
	}
	return false
}
