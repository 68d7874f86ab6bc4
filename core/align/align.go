package align

import (
	"strings"

	"github.com/fieldnote/igt/core/igt"
)

// Mode selects how cross-tier correspondence is resolved within a sentence.
type Mode int

const (
	// ModeReference follows explicit annotation references (symbolic
	// association / subdivision links) between tiers.
	ModeReference Mode = iota

	// ModePositional pairs tiers by start-time rank. Used when the schema
	// carries no references between the paired tiers.
	ModePositional
)

// modeFor returns the correspondence mode a schema uses. The word schema's
// tiers are independently time-aligned with no references; the others link
// their tiers by reference.
func modeFor(schema igt.Schema) Mode {
	if schema == igt.SchemaWord {
		return ModePositional
	}
	return ModeReference
}

// alignSentence resolves one sentence span against the morph, gloss and
// translation tiers and returns the assembled sentence. Errors are
// per-sentence data-quality failures (CountMismatchError,
// BoundaryMismatchError); the caller records them and continues.
func alignSentence(schema igt.Schema, tiers map[igt.TierRole]igt.Tier, span Span, index int) (igt.Sentence, error) {
	s := igt.Sentence{
		Index:       index,
		StartMs:     span.StartMs,
		EndMs:       span.EndMs,
		Text:        span.Text,
		Translation: joinContents(overlapping(tiers[igt.RoleTranslation], span.StartMs, span.EndMs)),
	}

	var err error
	switch schema {
	case igt.SchemaWord:
		err = alignWordSchema(&s, tiers, span)
	case igt.SchemaFiveTier:
		err = alignFiveTier(&s, tiers, span)
	default:
		err = alignFourTier(&s, tiers, span)
	}
	if err != nil {
		stamp(err, index, span)
		return s, err
	}

	if len(s.Morphemes) != len(s.Glosses) {
		return s, &igt.InvariantError{Index: index, Detail: "morpheme and gloss counts differ after alignment"}
	}
	return s, nil
}

// alignFourTier handles {text, morph, gloss, translation}: the text tier
// carries whole sentences with delimiters intact, the morph tier subdivides
// it, and glosses reference morphs.
func alignFourTier(s *igt.Sentence, tiers map[igt.TierRole]igt.Tier, span Span) error {
	morphAnns := startsIn(tiers[igt.RoleMorph], span.StartMs, span.EndMs)
	glossAnns := startsIn(tiers[igt.RoleGloss], span.StartMs, span.EndMs)

	glosses, err := pairGlosses(morphAnns, glossAnns, modeFor(igt.SchemaFourTier))
	if err != nil {
		return err
	}

	units, err := restoreSentence(strings.Fields(span.Text), contents(morphAnns))
	if err != nil {
		return err
	}

	s.Morphemes = units
	s.Glosses = glossUnits(glosses)
	return nil
}

// alignFiveTier handles {text0, text1, morph, gloss, translation}: text0 is
// the unsegmented presentation line, text1 carries the word tokens with
// boundary markers, morphs subdivide text1 words, glosses reference morphs.
func alignFiveTier(s *igt.Sentence, tiers map[igt.TierRole]igt.Tier, span Span) error {
	wordAnns := startsIn(tiers[igt.RoleText1], span.StartMs, span.EndMs)
	morphAnns := startsIn(tiers[igt.RoleMorph], span.StartMs, span.EndMs)
	glossAnns := startsIn(tiers[igt.RoleGloss], span.StartMs, span.EndMs)

	s.SegmentedText = joinContents(wordAnns)

	glosses, err := pairGlosses(morphAnns, glossAnns, modeFor(igt.SchemaFiveTier))
	if err != nil {
		return err
	}

	units, err := restoreGrouped(wordAnns, morphAnns)
	if err != nil {
		return err
	}

	s.Morphemes = units
	s.Glosses = glossUnits(glosses)
	return nil
}

// alignWordSchema handles {text, word, gloss, translation}: word and gloss
// tiers are paired positionally, one gloss token per word token, and both
// carry the boundary delimiters already.
func alignWordSchema(s *igt.Sentence, tiers map[igt.TierRole]igt.Tier, span Span) error {
	wordAnns := startsIn(tiers[igt.RoleWord], span.StartMs, span.EndMs)
	glossAnns := startsIn(tiers[igt.RoleGloss], span.StartMs, span.EndMs)

	if len(wordAnns) != len(glossAnns) {
		return &igt.CountMismatchError{
			StartMs: span.StartMs, EndMs: span.EndMs,
			Morphs: len(wordAnns), Glosses: len(glossAnns),
		}
	}

	var morphs []igt.MorphUnit
	var glosses []igt.GlossUnit
	for i, w := range wordAnns {
		mu := splitSegmented(w.Content)
		gu := splitSegmented(glossAnns[i].Content)
		if len(mu) != len(gu) {
			return &igt.CountMismatchError{
				StartMs: span.StartMs, EndMs: span.EndMs,
				Morphs: len(mu), Glosses: len(gu),
			}
		}
		morphs = append(morphs, mu...)
		for _, g := range gu {
			glosses = append(glosses, igt.GlossUnit{
				Content:   g.Content,
				SmallCaps: igt.IsAbbreviation(g.Content),
			})
		}
	}

	s.Morphemes = morphs
	s.Glosses = glosses
	return nil
}

// pairGlosses orders the gloss tokens 1:1 with the morph annotations. In
// reference mode each gloss names its morph and order follows the morph
// tier; when any reference is missing the pairing falls back to start-time
// rank. Unequal counts are fatal for the sentence; trailing tokens are
// never dropped.
func pairGlosses(morphs, glosses []igt.Annotation, mode Mode) ([]string, error) {
	if len(morphs) != len(glosses) {
		return nil, &igt.CountMismatchError{Morphs: len(morphs), Glosses: len(glosses)}
	}

	if mode == ModeReference {
		byParent := make(map[string]string, len(glosses))
		resolved := true
		for _, g := range glosses {
			if g.ParentID == "" {
				resolved = false
				break
			}
			byParent[g.ParentID] = g.Content
		}
		if resolved && len(byParent) == len(morphs) {
			out := make([]string, 0, len(morphs))
			for _, m := range morphs {
				c, ok := byParent[m.ID]
				if !ok {
					resolved = false
					break
				}
				out = append(out, c)
			}
			if resolved {
				return out, nil
			}
		}
		// fall through to positional pairing
	}

	return contents(glosses), nil
}

// restoreGrouped restores boundaries per word, grouping morphemes under
// their word annotation by reference when every morpheme resolves, and
// falling back to flat greedy consumption in time order otherwise.
func restoreGrouped(words, morphs []igt.Annotation) ([]igt.MorphUnit, error) {
	byWord := make(map[string]int, len(words))
	for i, w := range words {
		byWord[w.ID] = i
	}

	groups := make([][]string, len(words))
	resolved := true
	for _, m := range morphs {
		i, ok := byWord[m.ParentID]
		if !ok {
			resolved = false
			break
		}
		groups[i] = append(groups[i], m.Content)
	}

	if !resolved {
		return restoreSentence(contents(words), contents(morphs))
	}

	var units []igt.MorphUnit
	for i, w := range words {
		wu, err := restoreWord(w.Content, groups[i])
		if err != nil {
			return nil, err
		}
		units = append(units, wu...)
	}
	return units, nil
}

func glossUnits(tokens []string) []igt.GlossUnit {
	out := make([]igt.GlossUnit, len(tokens))
	for i, c := range tokens {
		out[i] = igt.GlossUnit{Content: c, SmallCaps: igt.IsAbbreviation(c)}
	}
	return out
}

func contents(anns []igt.Annotation) []string {
	out := make([]string, len(anns))
	for i, a := range anns {
		out[i] = a.Content
	}
	return out
}

func joinContents(anns []igt.Annotation) string {
	parts := make([]string, 0, len(anns))
	for _, a := range anns {
		if !a.IsBlank() {
			parts = append(parts, a.Content)
		}
	}
	return strings.Join(parts, " ")
}

// stamp fills the sentence index and span into per-sentence error types
// created below the sentence level.
func stamp(err error, index int, span Span) {
	switch e := err.(type) {
	case *igt.CountMismatchError:
		e.Index = index
		e.StartMs = span.StartMs
		e.EndMs = span.EndMs
	case *igt.BoundaryMismatchError:
		e.Index = index
	case *igt.InvariantError:
		e.Index = index
	}
}
