// Package plaintext renders aligned documents as numbered interlinear
// examples in plain text, with the morpheme and gloss lines padded into
// columns.
package plaintext

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"

	"github.com/fieldnote/igt/core/igt"
)

// Options controls plain-text output.
type Options struct {
	// SmallCaps converts grammatical-category abbreviations to Unicode
	// small capitals on the gloss line.
	SmallCaps bool

	// NumberFrom is the number of the first example. Zero means 1.
	NumberFrom int
}

// Render writes the document as a sequence of numbered examples:
//
//	(1) taka-ta=wa
//	    mushroom-PST=TOP
//	    'It was a mushroom.'
//
// Column starts line up between the morpheme and gloss lines. Skipped
// sentences keep their number and emit the raw text and translation.
func Render(doc *igt.Document, opts Options) string {
	n := opts.NumberFrom
	if n == 0 {
		n = 1
	}

	var buf strings.Builder
	for i, s := range doc.Sentences {
		if i > 0 {
			buf.WriteString("\n")
		}
		renderSentence(&buf, s, n, opts)
		n++
	}
	return buf.String()
}

func renderSentence(buf *strings.Builder, s igt.Sentence, n int, opts Options) {
	label := fmt.Sprintf("(%d) ", n)
	indent := strings.Repeat(" ", len(label))

	if s.Skipped {
		buf.WriteString(label)
		buf.WriteString(s.Text)
		buf.WriteString("\n")
		if s.Translation != "" {
			fmt.Fprintf(buf, "%s'%s'\n", indent, s.Translation)
		}
		return
	}

	morphs := morphWords(s)
	glosses := glossWords(s, opts)

	buf.WriteString(label)
	buf.WriteString(columns(morphs, glosses))
	buf.WriteString("\n")
	buf.WriteString(indent)
	buf.WriteString(columns(glosses, morphs))
	buf.WriteString("\n")
	if s.Translation != "" {
		fmt.Fprintf(buf, "%s'%s'\n", indent, s.Translation)
	}
}

// columns pads each token of line a so that columns start where the
// wider of the two lines' tokens ends, keeping the two lines aligned
// word by word. The final token is not padded.
func columns(a, b []string) string {
	var buf strings.Builder
	for i, tok := range a {
		buf.WriteString(tok)
		if i == len(a)-1 {
			break
		}
		w := displayWidth(tok)
		col := w
		if i < len(b) {
			if bw := displayWidth(b[i]); bw > col {
				col = bw
			}
		}
		buf.WriteString(strings.Repeat(" ", col-w+1))
	}
	return buf.String()
}

// displayWidth counts terminal cells, treating East Asian wide and
// fullwidth characters as two.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// morphWords regroups the flat morpheme sequence into word tokens with
// boundary markers restored.
func morphWords(s igt.Sentence) []string {
	var words []string
	var cur strings.Builder
	for _, m := range s.Morphemes {
		if m.Boundary == igt.BoundaryWord {
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		} else {
			cur.WriteString(string(m.Boundary))
		}
		cur.WriteString(m.Content)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

func glossWords(s igt.Sentence, opts Options) []string {
	var words []string
	var cur strings.Builder
	for i, g := range s.Glosses {
		c := g.Content
		if opts.SmallCaps && g.SmallCaps {
			c = smallCaps(c)
		}
		b := s.Morphemes[i].Boundary
		if b == igt.BoundaryWord {
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		} else {
			cur.WriteString(string(b))
		}
		cur.WriteString(c)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

// smallCapsTable maps capital letters to Unicode small capitals. 'X'
// has no small-capital codepoint and stays as-is.
var smallCapsTable = map[rune]rune{
	'A': 'ᴀ', 'B': 'ʙ', 'C': 'ᴄ', 'D': 'ᴅ', 'E': 'ᴇ', 'F': 'ꜰ',
	'G': 'ɢ', 'H': 'ʜ', 'I': 'ɪ', 'J': 'ᴊ', 'K': 'ᴋ', 'L': 'ʟ',
	'M': 'ᴍ', 'N': 'ɴ', 'O': 'ᴏ', 'P': 'ᴘ', 'Q': 'ǫ', 'R': 'ʀ',
	'S': 'ꜱ', 'T': 'ᴛ', 'U': 'ᴜ', 'V': 'ᴠ', 'W': 'ᴡ', 'Y': 'ʏ',
	'Z': 'ᴢ',
}

func smallCaps(s string) string {
	var buf strings.Builder
	for _, r := range s {
		if sc, ok := smallCapsTable[r]; ok {
			buf.WriteRune(sc)
		} else {
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
