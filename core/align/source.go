// Package align turns independently time-coded annotation tiers into the
// aligned sentence structure defined in core/igt. It extracts tiers from an
// annotation source, segments the primary text tier into sentences, resolves
// cross-tier correspondence per sentence, and restores the morpheme boundary
// markers the annotation tool drops from the morpheme tier.
package align

import (
	"sort"

	"github.com/fieldnote/igt/core/igt"
)

// Source is the annotation-file interface the engine consumes. core/eaf
// implements it; tests implement it over in-memory maps.
type Source interface {
	// TierNames returns all tier names present in the source.
	TierNames() []string

	// Tier returns the named tier's annotations, ordered by start time,
	// and whether the tier exists.
	Tier(name string) ([]igt.Annotation, bool)
}

// Extract resolves the logical tier-name mapping against the source and
// returns one Tier per role the schema requires. A configured physical name
// absent from the source is a MissingTierError; a required tier with zero
// non-blank annotations is an EmptyTierError. Both are fatal: no sentence
// can be built without a required tier. The translation tier must be mapped
// and present but may be empty (free translations are routinely added last
// during fieldwork).
func Extract(src Source, schema igt.Schema, tiers igt.TierMap) (map[igt.TierRole]igt.Tier, error) {
	if err := tiers.Validate(schema); err != nil {
		return nil, err
	}

	out := make(map[igt.TierRole]igt.Tier, len(schema.Roles()))
	for _, role := range schema.Roles() {
		name := tiers[role]
		anns, ok := src.Tier(name)
		if !ok {
			return nil, &igt.MissingTierError{Role: role, Name: name}
		}
		if role != igt.RoleTranslation && countNonBlank(anns) == 0 {
			return nil, &igt.EmptyTierError{Role: role, Name: name}
		}
		sorted := make([]igt.Annotation, len(anns))
		copy(sorted, anns)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].StartMs < sorted[j].StartMs
		})
		out[role] = igt.Tier{Name: name, Role: role, Annotations: sorted}
	}
	return out, nil
}

func countNonBlank(anns []igt.Annotation) int {
	n := 0
	for _, a := range anns {
		if !a.IsBlank() {
			n++
		}
	}
	return n
}

// startsIn returns the annotations whose start time falls inside
// [startMs, endMs), in start-time order. An annotation belongs to the
// sentence containing its start time.
func startsIn(tier igt.Tier, startMs, endMs int) []igt.Annotation {
	var out []igt.Annotation
	for _, a := range tier.Annotations {
		if a.IsBlank() {
			continue
		}
		if a.StartMs >= startMs && a.StartMs < endMs {
			out = append(out, a)
		}
	}
	return out
}

// overlapping returns the annotations whose time range overlaps
// [startMs, endMs). Used for the translation tier, whose annotations may
// begin slightly before the sentence they cover.
func overlapping(tier igt.Tier, startMs, endMs int) []igt.Annotation {
	var out []igt.Annotation
	for _, a := range tier.Annotations {
		if a.IsBlank() {
			continue
		}
		lo := max(a.StartMs, startMs)
		hi := min(a.EndMs, endMs)
		if lo < hi || (a.StartMs == startMs && a.EndMs == endMs) {
			out = append(out, a)
		}
	}
	return out
}
