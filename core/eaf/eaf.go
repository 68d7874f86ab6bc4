// Package eaf parses ELAN annotation files (.eaf) into an in-memory tier
// tree. An EAF file is XML: a TIME_ORDER table of named time slots and a set
// of TIER elements whose annotations are either time-alignable (two slot
// references) or reference annotations pointing at an annotation in another
// tier. The parser resolves both into the flat Annotation records the
// alignment engine consumes.
package eaf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/zeebo/blake3"

	"github.com/fieldnote/igt/core/igt"
	"github.com/fieldnote/igt/internal/logging"
)

// Document is a parsed EAF file: an ordered set of named tiers.
type Document struct {
	// SourcePath is the file the document was read from, empty for Parse.
	SourcePath string

	// SourceHash is the BLAKE3 hex digest of the raw file bytes.
	SourceHash string

	// MediaURL is the first linked media file, if any.
	MediaURL string

	root      *xmlquery.Node
	tierOrder []string
	tiers     map[string][]igt.Annotation
}

// ParseFile reads and parses an EAF file from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourcePath = path
	return doc, nil
}

// Parse parses EAF XML data.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing EAF XML: %w", err)
	}

	sum := blake3.Sum256(data)
	doc := &Document{
		SourceHash: hex.EncodeToString(sum[:]),
		root:       root,
		tiers:      make(map[string][]igt.Annotation),
	}

	if media := xmlquery.FindOne(root, "//MEDIA_DESCRIPTOR"); media != nil {
		doc.MediaURL = media.SelectAttr("MEDIA_URL")
	}

	slots := parseTimeSlots(root)

	// First pass: collect every annotation so reference chains can be
	// resolved regardless of tier order in the file.
	type rawAnnotation struct {
		tier    string
		id      string
		refID   string
		content string
		startID string
		endID   string
	}
	var raw []rawAnnotation

	for _, tier := range xmlquery.Find(root, "//TIER") {
		tierID := tier.SelectAttr("TIER_ID")
		if tierID == "" {
			continue
		}
		doc.tierOrder = append(doc.tierOrder, tierID)
		doc.tiers[tierID] = nil

		for _, ann := range xmlquery.Find(tier, ".//ALIGNABLE_ANNOTATION") {
			raw = append(raw, rawAnnotation{
				tier:    tierID,
				id:      ann.SelectAttr("ANNOTATION_ID"),
				content: annotationValue(ann),
				startID: ann.SelectAttr("TIME_SLOT_REF1"),
				endID:   ann.SelectAttr("TIME_SLOT_REF2"),
			})
		}
		for _, ann := range xmlquery.Find(tier, ".//REF_ANNOTATION") {
			raw = append(raw, rawAnnotation{
				tier:    tierID,
				id:      ann.SelectAttr("ANNOTATION_ID"),
				refID:   ann.SelectAttr("ANNOTATION_REF"),
				content: annotationValue(ann),
			})
		}
	}

	// Resolve time ranges. Alignable annotations read their slots directly;
	// reference annotations inherit from the (possibly chained) referent.
	// Unresolvable annotations degrade to zero times rather than failing
	// the parse: data quality is judged downstream, per sentence.
	log := logging.GetLogger()
	type span struct{ start, end int }
	spans := make(map[string]span, len(raw))
	refs := make(map[string]string)
	for _, r := range raw {
		if r.refID != "" {
			refs[r.id] = r.refID
			continue
		}
		start, okStart := slots[r.startID]
		end, okEnd := slots[r.endID]
		if !okStart || !okEnd {
			log.Warn("unresolved time slot reference, using zero times",
				"annotation", r.id, "tier", r.tier)
		}
		spans[r.id] = span{start, end}
	}

	var resolve func(id string, seen map[string]bool) span
	resolve = func(id string, seen map[string]bool) span {
		if sp, ok := spans[id]; ok {
			return sp
		}
		if seen[id] {
			log.Warn("annotation reference cycle, using zero times", "annotation", id)
			return span{}
		}
		seen[id] = true
		if ref, ok := refs[id]; ok {
			sp := resolve(ref, seen)
			spans[id] = sp
			return sp
		}
		log.Warn("dangling annotation reference, using zero times", "annotation", id)
		return span{}
	}

	for _, r := range raw {
		sp := resolve(r.id, map[string]bool{})
		doc.tiers[r.tier] = append(doc.tiers[r.tier], igt.Annotation{
			ID:       r.id,
			ParentID: r.refID,
			Content:  strings.TrimSpace(r.content),
			StartMs:  sp.start,
			EndMs:    sp.end,
		})
	}

	for _, anns := range doc.tiers {
		sort.SliceStable(anns, func(i, j int) bool {
			return anns[i].StartMs < anns[j].StartMs
		})
	}

	return doc, nil
}

func parseTimeSlots(root *xmlquery.Node) map[string]int {
	log := logging.GetLogger()
	slots := make(map[string]int)
	for _, slot := range xmlquery.Find(root, "//TIME_ORDER/TIME_SLOT") {
		id := slot.SelectAttr("TIME_SLOT_ID")
		value := slot.SelectAttr("TIME_VALUE")
		if id == "" {
			continue
		}
		if value == "" {
			log.Warn("time slot without value", "slot", id)
			continue
		}
		ms, err := strconv.Atoi(value)
		if err != nil {
			log.Warn("unparsable time slot value", "slot", id, "value", value)
			continue
		}
		slots[id] = ms
	}
	return slots
}

func annotationValue(ann *xmlquery.Node) string {
	if v := xmlquery.FindOne(ann, "ANNOTATION_VALUE"); v != nil {
		return v.InnerText()
	}
	return ""
}

// Query runs an XPath expression against the raw document tree and returns
// the inner text of each match. The expression is compiled first so an
// invalid query is reported as such rather than as an empty result.
func (d *Document) Query(expr string) ([]string, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.InnerText()
	}
	return out, nil
}

// TierNames returns the tier names in file order.
func (d *Document) TierNames() []string {
	return d.tierOrder
}

// Tier returns the annotations of the named tier and whether it exists.
func (d *Document) Tier(name string) ([]igt.Annotation, bool) {
	anns, ok := d.tiers[name]
	return anns, ok
}

// Hash returns the BLAKE3 digest of the source bytes.
func (d *Document) Hash() string { return d.SourceHash }

// Path returns the source file path.
func (d *Document) Path() string { return d.SourcePath }
