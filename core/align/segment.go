package align

import (
	"strings"

	"github.com/fieldnote/igt/core/igt"
)

// Span is one sentence span over the primary text tier: the authoritative
// time range plus the concatenated text that produced it.
type Span struct {
	StartMs int
	EndMs   int
	Text    string

	// Annotations are the primary-tier annotations folded into this span.
	Annotations []igt.Annotation
}

// Segment walks the primary text tier in time order and splits it into
// sentence spans. Annotation content accumulates into a buffer; when the
// buffer ends with a sentence-final mark (allowing trailing quotes and
// brackets) a span is emitted, closing at the end time of the annotation
// that completed it. Blank annotations are skipped and never open a span.
//
// A trailing buffer without a terminal mark is still emitted as the final
// span: transcribers routinely omit the final period, and dropping the text
// would silently lose data. Every non-blank annotation therefore belongs to
// exactly one span.
func Segment(primary igt.Tier) []Span {
	var spans []Span
	var buf []string
	var anns []igt.Annotation
	startMs, endMs := 0, 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		spans = append(spans, Span{
			StartMs:     startMs,
			EndMs:       endMs,
			Text:        strings.Join(buf, " "),
			Annotations: anns,
		})
		buf = nil
		anns = nil
	}

	for _, a := range primary.Annotations {
		if a.IsBlank() {
			continue
		}
		if len(buf) == 0 {
			startMs = a.StartMs
		}
		buf = append(buf, a.Content)
		anns = append(anns, a)
		endMs = a.EndMs

		if igt.EndsWithTerminal(strings.Join(buf, " ")) {
			flush()
		}
	}
	flush()

	return spans
}
