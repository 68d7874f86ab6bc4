package igt

import (
	"strings"
	"unicode"
)

// sentence-final marks recognized by segmentation and validation.
const terminalMarks = ".?!"

// trailing characters tolerated after a terminal mark (quotes, brackets).
const trailingMarks = "\"'”’»)]"

// EndsWithTerminal reports whether s, after trimming trailing quotation and
// bracket characters, ends with a sentence-final punctuation mark.
func EndsWithTerminal(s string) bool {
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(trailingMarks, r)
	})
	if s == "" {
		return false
	}
	return strings.ContainsRune(terminalMarks, rune(s[len(s)-1]))
}

// Validate checks the document's structural invariants and returns the
// first violation found, or nil. Skipped sentences are exempt from all but
// the index check: they are already flagged for manual review and keep
// whatever time range the source gave them.
func (d *Document) Validate() error {
	prevEnd := -1
	for i := range d.Sentences {
		s := &d.Sentences[i]
		if s.Index != i {
			return &InvariantError{Index: i, Detail: "sentence index out of order"}
		}
		if s.Skipped {
			continue
		}
		if s.EndMs <= s.StartMs {
			return &InvariantError{Index: i, Detail: "degenerate time range"}
		}
		if s.StartMs < prevEnd {
			return &InvariantError{Index: i, Detail: "sentence spans overlap"}
		}
		prevEnd = s.EndMs

		if strings.TrimSpace(s.Text) == "" {
			return &InvariantError{Index: i, Detail: "empty sentence text"}
		}
		// Only the final sentence may lack a terminal mark.
		if i < len(d.Sentences)-1 && !EndsWithTerminal(s.Text) {
			return &InvariantError{Index: i, Detail: "sentence does not end with a terminal mark"}
		}
		if len(s.Morphemes) != len(s.Glosses) {
			return &InvariantError{Index: i, Detail: "morpheme and gloss counts differ"}
		}
	}
	return nil
}
