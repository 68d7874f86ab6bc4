// Package gb4e renders aligned documents as LaTeX interlinear examples
// using the gb4e package.
package gb4e

import (
	"fmt"
	"strings"

	"github.com/fieldnote/igt/core/igt"
)

// Options controls LaTeX output.
type Options struct {
	// SmallCaps wraps grammatical-category abbreviations in \textsc{}.
	SmallCaps bool

	// Tipa substitutes IPA characters with tipa macros on the morpheme
	// line. Requires \usepackage{tipa} in the document preamble.
	Tipa bool

	// Preamble prepends a commented-out preamble listing the packages
	// the output depends on, so the fragment documents its own needs
	// when pasted into a larger document.
	Preamble bool
}

// Render writes the whole document as a sequence of gb4e examples, one
// \ex per sentence. Sentences with the segmented word line present use
// \glll (three aligned lines); the rest use \gll. Skipped sentences are
// emitted as plain examples carrying only the text and translation.
func Render(doc *igt.Document, opts Options) string {
	var buf strings.Builder

	if opts.Preamble {
		buf.WriteString("% Requires in the preamble:\n")
		buf.WriteString("%   \\usepackage{gb4e}\n")
		if opts.Tipa {
			buf.WriteString("%   \\usepackage{tipa}\n")
		}
		buf.WriteString("\n")
	}

	buf.WriteString("\\begin{exe}\n")
	for _, s := range doc.Sentences {
		renderSentence(&buf, s, opts)
	}
	buf.WriteString("\\end{exe}\n")
	return buf.String()
}

func renderSentence(buf *strings.Builder, s igt.Sentence, opts Options) {
	if s.Skipped {
		buf.WriteString("\\ex ")
		buf.WriteString(escape(s.Text))
		buf.WriteString("\\\\\n")
		if s.Translation != "" {
			fmt.Fprintf(buf, "\\glt `%s'\n", escape(s.Translation))
		}
		buf.WriteString("\n")
		return
	}

	morphLine := joinWords(morphWords(s, opts))
	glossLine := joinWords(glossWords(s, opts))

	buf.WriteString("\\ex\n")
	if top, ok := topLine(s); ok {
		fmt.Fprintf(buf, "\\glll %s\\\\\n", top)
		fmt.Fprintf(buf, "%s\\\\\n", morphLine)
	} else {
		fmt.Fprintf(buf, "\\gll %s\\\\\n", morphLine)
	}
	fmt.Fprintf(buf, "%s\\\\\n", glossLine)
	if s.Translation != "" {
		fmt.Fprintf(buf, "\\glt `%s'\n", escape(s.Translation))
	}
	buf.WriteString("\n")
}

// topLine returns the unsegmented presentation words when they pair up
// one-to-one with the morpheme words. gb4e aligns \glll lines word by
// word, so a count mismatch would shear the columns; in that case the
// example falls back to two lines.
func topLine(s igt.Sentence) (string, bool) {
	if s.SegmentedText == "" {
		return "", false
	}
	words := strings.Fields(s.Text)
	if len(words) != len(s.Words()) {
		return "", false
	}
	for i, w := range words {
		words[i] = escape(w)
	}
	return strings.Join(words, " "), true
}

// morphWords regroups the flat morpheme sequence into word tokens, with
// boundary markers restored between morphemes.
func morphWords(s igt.Sentence, opts Options) []string {
	var words []string
	var cur strings.Builder
	for _, m := range s.Morphemes {
		c := escape(m.Content)
		if opts.Tipa {
			c = tipa(c)
		}
		if m.Boundary == igt.BoundaryWord {
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		} else {
			cur.WriteString(string(m.Boundary))
		}
		cur.WriteString(c)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

// glossWords mirrors morphWords on the gloss line: gloss tokens inherit
// the boundary of their morpheme, and abbreviations are set in small
// caps when requested.
func glossWords(s igt.Sentence, opts Options) []string {
	var words []string
	var cur strings.Builder
	for i, g := range s.Glosses {
		c := escape(g.Content)
		if opts.SmallCaps && g.SmallCaps {
			c = fmt.Sprintf("\\textsc{%s}", strings.ToLower(c))
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

func joinWords(words []string) string {
	return strings.Join(words, " ")
}

var latexEscaper = strings.NewReplacer(
	"\\", "\\textbackslash{}",
	"&", "\\&",
	"%", "\\%",
	"$", "\\$",
	"#", "\\#",
	"_", "\\_",
	"{", "\\{",
	"}", "\\}",
	"~", "\\textasciitilde{}",
	"^", "\\textasciicircum{}",
)

func escape(s string) string {
	return latexEscaper.Replace(s)
}

// tipaTable maps IPA characters to tipa macros. Only characters common
// in fieldwork transcriptions are covered; anything unmapped passes
// through unchanged.
var tipaTable = strings.NewReplacer(
	"ŋ", "\\ng{}",
	"ə", "\\textschwa{}",
	"ɛ", "\\textepsilon{}",
	"ɔ", "\\textopeno{}",
	"ɨ", "\\textbari{}",
	"ɯ", "\\textturnm{}",
	"ʃ", "\\textesh{}",
	"ʒ", "\\textyogh{}",
	"ʔ", "\\textglotstop{}",
	"ʕ", "\\textrevglotstop{}",
	"ɸ", "\\textphi{}",
	"β", "\\textbeta{}",
	"ɾ", "\\textfishhookr{}",
	"ɣ", "\\textgamma{}",
	"θ", "\\texttheta{}",
	"ð", "\\dh{}",
	"ɲ", "\\textltailn{}",
	"ʲ", "\\textsuperscript{j}",
	"ʰ", "\\textsuperscript{h}",
	"ː", "\\textlengthmark{}",
)

func tipa(s string) string {
	return tipaTable.Replace(s)
}
