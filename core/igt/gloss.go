package igt

import "unicode"

// IsAbbreviation reports whether a gloss token is a grammatical abbreviation
// (rendered in small caps) rather than a lexical gloss. Abbreviations are
// written in upper case in the source: every letter in the token must be
// upper case and there must be at least two of them ("PST", "3SG",
// "PST.PL"). The single-letter question marker "Q" is the one conventional
// exception. The rule is a heuristic; renderers expose a switch to disable
// small-caps conversion entirely.
func IsAbbreviation(token string) bool {
	letters := 0
	for _, r := range token {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	if letters == 0 {
		return false
	}
	return letters >= 2 || token == "Q"
}
