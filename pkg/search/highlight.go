package search

import "unicode"

// HighlightContext is the number of runes kept on each side of a match.
const HighlightContext = 30

const ellipsis = "..."

// Highlight returns an excerpt of content around the first case-insensitive
// match of term. Truncated ends are marked with "...". When term does not
// occur the excerpt is taken from the start of content.
func Highlight(content, term string) string {
	rc := []rune(content)
	rt := []rune(term)
	idx := indexFold(rc, rt)
	if idx < 0 {
		idx, rt = 0, nil
	}
	start := idx - HighlightContext
	if start < 0 {
		start = 0
	}
	end := idx + len(rt) + HighlightContext
	if end > len(rc) {
		end = len(rc)
	}
	out := string(rc[start:end])
	if start > 0 {
		out = ellipsis + out
	}
	if end < len(rc) {
		out += ellipsis
	}
	return out
}

// indexFold finds sub in s ignoring case, in runes. An empty sub matches at 0.
func indexFold(s, sub []rune) int {
	if len(sub) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j, r := range sub {
			if !equalFold(s[i+j], r) {
				continue outer
			}
		}
		return i
	}
	return -1
}

func equalFold(a, b rune) bool {
	return a == b || unicode.ToLower(a) == unicode.ToLower(b)
}
