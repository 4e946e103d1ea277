package dialog

import (
	"strings"
)

// fillerCycle rotates a small set of spoken filler prefixes across responses.
// Fillers are never injected into responses touching sensitive topics (phone
// numbers, OTP, date of birth, digit counts) and never stacked onto a
// response that already opens with a filler word.
type fillerCycle struct {
	fillers   []string
	prefixes  []string // lowercased filler words for the double-prefix check
	sensitive []string
	idx       int
}

func newFillerCycle(fillers, sensitive []string) *fillerCycle {
	prefixes := make([]string, 0, len(fillers))
	for _, f := range fillers {
		p := strings.ToLower(strings.TrimRight(strings.TrimSpace(f), ","))
		if p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return &fillerCycle{fillers: fillers, prefixes: prefixes, sensitive: sensitive}
}

func (f *fillerCycle) isSensitive(text string) bool {
	probe := strings.ToLower(text)
	for _, term := range f.sensitive {
		if strings.Contains(probe, term) {
			return true
		}
	}
	return false
}

// Apply prefixes the next filler onto text when allowed. The rotation
// advances whenever a filler was eligible, matching the reference cadence.
func (f *fillerCycle) Apply(text string) string {
	if len(f.fillers) == 0 || text == "" || f.isSensitive(text) {
		return text
	}

	prefix := f.fillers[f.idx]
	f.idx = (f.idx + 1) % len(f.fillers)

	probe := strings.ToLower(text)
	for _, p := range f.prefixes {
		if strings.HasPrefix(probe, p) {
			return text
		}
	}
	return prefix + text
}
