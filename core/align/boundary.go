package align

import (
	"strings"

	"github.com/fieldnote/igt/core/igt"
)

// Boundary restoration. The annotation tool stores each morpheme as an
// independent token, so the "-" and "=" delimiters present in the segmented
// text tier are lost from the morpheme tier. The restorer diffs each word
// token (delimiters intact) against its morpheme tokens and records the
// delimiter skipped between matches as the attaching boundary of the
// following morpheme.

// wordCut trims the punctuation a word token picks up from running text
// (sentence-final marks, commas, surrounding quotes and brackets) so that
// only segmentable content is diffed against the morpheme tier.
const (
	leadingCut  = "\"'“‘«([¿¡"
	trailingCut = ".?!,;:…\"'”’»)]"
)

func trimToken(word string) string {
	word = strings.TrimLeft(word, leadingCut)
	return strings.TrimRight(word, trailingCut)
}

// consumeWord greedily matches morpheme tokens against one word token,
// left to right. It returns the restored units and how many tokens it
// consumed. The first morpheme of a word carries BoundaryWord; each further
// morpheme must be introduced by a "-" or "=" at the current position, and
// its content must match the upcoming substring exactly. Any drift between
// the tiers is a BoundaryMismatchError.
func consumeWord(word string, morphs []string) ([]igt.MorphUnit, int, error) {
	target := trimToken(word)
	if target == "" {
		return nil, 0, nil
	}

	var units []igt.MorphUnit
	pos := 0
	used := 0
	for pos < len(target) {
		boundary := igt.BoundaryWord
		if pos > 0 {
			switch target[pos] {
			case '-':
				boundary = igt.BoundaryAffix
				pos++
			case '=':
				boundary = igt.BoundaryClitic
				pos++
			default:
				// Morphemes inside a word must be delimiter-separated;
				// anything else is content drift.
				return nil, used, &igt.BoundaryMismatchError{Word: word, Morph: target[pos:]}
			}
		}
		if used >= len(morphs) {
			return nil, used, &igt.BoundaryMismatchError{Word: word}
		}
		m := morphs[used]
		if m == "" || !strings.HasPrefix(target[pos:], m) {
			return nil, used, &igt.BoundaryMismatchError{Word: word, Morph: m}
		}
		units = append(units, igt.MorphUnit{Content: m, Boundary: boundary})
		pos += len(m)
		used++
	}
	return units, used, nil
}

// restoreWord matches a word against exactly the given morpheme tokens.
func restoreWord(word string, morphs []string) ([]igt.MorphUnit, error) {
	units, used, err := consumeWord(word, morphs)
	if err != nil {
		return nil, err
	}
	if used != len(morphs) {
		return nil, &igt.BoundaryMismatchError{Word: word, Morph: morphs[used]}
	}
	return units, nil
}

// restoreSentence distributes a flat, time-ordered morpheme token list over
// the sentence's word tokens. Used when no annotation references link
// morphemes to words. Leftover or missing morphemes are reported rather
// than dropped.
func restoreSentence(words []string, morphs []string) ([]igt.MorphUnit, error) {
	var units []igt.MorphUnit
	used := 0
	for _, w := range words {
		wu, n, err := consumeWord(w, morphs[used:])
		if err != nil {
			return nil, err
		}
		units = append(units, wu...)
		used += n
	}
	if used < len(morphs) {
		return nil, &igt.BoundaryMismatchError{Morph: morphs[used]}
	}
	return units, nil
}

// splitSegmented splits an already-delimited token ("taka-ta=wa" or a gloss
// "mushroom-PST=TOP") into units with their boundaries. Used by the word
// schema, whose word and gloss tiers both carry the delimiters.
func splitSegmented(token string) []igt.MorphUnit {
	target := trimToken(token)
	if target == "" {
		return nil
	}

	var units []igt.MorphUnit
	boundary := igt.BoundaryWord
	start := 0
	for i := 0; i < len(target); i++ {
		switch target[i] {
		case '-', '=':
			units = append(units, igt.MorphUnit{Content: target[start:i], Boundary: boundary})
			if target[i] == '-' {
				boundary = igt.BoundaryAffix
			} else {
				boundary = igt.BoundaryClitic
			}
			start = i + 1
		}
	}
	units = append(units, igt.MorphUnit{Content: target[start:], Boundary: boundary})
	return units
}
