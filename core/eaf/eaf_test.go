package eaf

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fieldnote/igt/internal/logging"
)

// sampleEAF is a minimal four-tier file: a time-aligned text tier, a morph
// tier subdividing it, a gloss tier referencing the morphs, and a
// time-aligned translation tier.
const sampleEAF = `<?xml version="1.0" encoding="UTF-8"?>
<ANNOTATION_DOCUMENT AUTHOR="" DATE="2024-01-01T00:00:00Z" FORMAT="3.0" VERSION="3.0">
  <HEADER MEDIA_FILE="" TIME_UNITS="milliseconds">
    <MEDIA_DESCRIPTOR MEDIA_URL="file:///data/sample.wav" MIME_TYPE="audio/x-wav"/>
  </HEADER>
  <TIME_ORDER>
    <TIME_SLOT TIME_SLOT_ID="ts1" TIME_VALUE="600"/>
    <TIME_SLOT TIME_SLOT_ID="ts2" TIME_VALUE="1400"/>
    <TIME_SLOT TIME_SLOT_ID="ts3" TIME_VALUE="1500"/>
    <TIME_SLOT TIME_SLOT_ID="ts4" TIME_VALUE="2300"/>
  </TIME_ORDER>
  <TIER LINGUISTIC_TYPE_REF="default" TIER_ID="text@KS">
    <ANNOTATION>
      <ALIGNABLE_ANNOTATION ANNOTATION_ID="a1" TIME_SLOT_REF1="ts1" TIME_SLOT_REF2="ts2">
        <ANNOTATION_VALUE>taka-ta=wa.</ANNOTATION_VALUE>
      </ALIGNABLE_ANNOTATION>
    </ANNOTATION>
  </TIER>
  <TIER LINGUISTIC_TYPE_REF="subdivision" PARENT_REF="text@KS" TIER_ID="morph@KS">
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="a2" ANNOTATION_REF="a1">
        <ANNOTATION_VALUE>taka</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="a3" ANNOTATION_REF="a1">
        <ANNOTATION_VALUE>ta</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="a4" ANNOTATION_REF="a1">
        <ANNOTATION_VALUE>wa</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
  </TIER>
  <TIER LINGUISTIC_TYPE_REF="association" PARENT_REF="morph@KS" TIER_ID="gloss@KS">
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="a5" ANNOTATION_REF="a2">
        <ANNOTATION_VALUE>mushroom</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="a6" ANNOTATION_REF="a3">
        <ANNOTATION_VALUE>PST</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="a7" ANNOTATION_REF="a4">
        <ANNOTATION_VALUE>TOP</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
  </TIER>
  <TIER LINGUISTIC_TYPE_REF="default" TIER_ID="translation@KS">
    <ANNOTATION>
      <ALIGNABLE_ANNOTATION ANNOTATION_ID="a8" TIME_SLOT_REF1="ts1" TIME_SLOT_REF2="ts2">
        <ANNOTATION_VALUE> It was a mushroom. </ANNOTATION_VALUE>
      </ALIGNABLE_ANNOTATION>
    </ANNOTATION>
  </TIER>
</ANNOTATION_DOCUMENT>`

func TestParse_Tiers(t *testing.T) {
	doc, err := Parse([]byte(sampleEAF))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	names := doc.TierNames()
	want := []string{"text@KS", "morph@KS", "gloss@KS", "translation@KS"}
	if len(names) != len(want) {
		t.Fatalf("expected %d tiers, got %d: %v", len(want), len(names), names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("tier %d: expected %q, got %q", i, n, names[i])
		}
	}

	text, ok := doc.Tier("text@KS")
	if !ok {
		t.Fatal("text@KS tier missing")
	}
	if len(text) != 1 {
		t.Fatalf("expected 1 text annotation, got %d", len(text))
	}
	if text[0].Content != "taka-ta=wa." {
		t.Errorf("unexpected text content: %q", text[0].Content)
	}
	if text[0].StartMs != 600 || text[0].EndMs != 1400 {
		t.Errorf("expected span [600,1400), got [%d,%d)", text[0].StartMs, text[0].EndMs)
	}

	if _, ok := doc.Tier("nonexistent"); ok {
		t.Error("expected lookup of unknown tier to fail")
	}
}

func TestParse_RefChainTimes(t *testing.T) {
	doc, err := Parse([]byte(sampleEAF))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// morph annotations reference a1 directly.
	morphs, _ := doc.Tier("morph@KS")
	if len(morphs) != 3 {
		t.Fatalf("expected 3 morph annotations, got %d", len(morphs))
	}
	for _, m := range morphs {
		if m.StartMs != 600 || m.EndMs != 1400 {
			t.Errorf("morph %q: expected inherited span [600,1400), got [%d,%d)", m.Content, m.StartMs, m.EndMs)
		}
		if m.ParentID != "a1" {
			t.Errorf("morph %q: expected parent a1, got %q", m.Content, m.ParentID)
		}
	}

	// gloss annotations reference morphs, a two-step chain to the times.
	glosses, _ := doc.Tier("gloss@KS")
	if len(glosses) != 3 {
		t.Fatalf("expected 3 gloss annotations, got %d", len(glosses))
	}
	if glosses[0].StartMs != 600 || glosses[0].EndMs != 1400 {
		t.Errorf("gloss span not inherited through chain: [%d,%d)", glosses[0].StartMs, glosses[0].EndMs)
	}
	if glosses[1].ParentID != "a3" {
		t.Errorf("expected gloss parent a3, got %q", glosses[1].ParentID)
	}
}

func TestParse_TrimsValues(t *testing.T) {
	doc, err := Parse([]byte(sampleEAF))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	trans, _ := doc.Tier("translation@KS")
	if trans[0].Content != "It was a mushroom." {
		t.Errorf("expected trimmed value, got %q", trans[0].Content)
	}
}

func TestParse_MediaAndHash(t *testing.T) {
	doc, err := Parse([]byte(sampleEAF))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if doc.MediaURL != "file:///data/sample.wav" {
		t.Errorf("unexpected media URL: %q", doc.MediaURL)
	}
	if len(doc.Hash()) != 64 {
		t.Errorf("expected 64-char BLAKE3 hex digest, got %d chars", len(doc.Hash()))
	}

	// Identical bytes hash identically; a changed byte does not.
	doc2, _ := Parse([]byte(sampleEAF))
	if doc.Hash() != doc2.Hash() {
		t.Error("hash not deterministic")
	}
}

func TestParse_DanglingRef(t *testing.T) {
	const dangling = `<?xml version="1.0"?>
<ANNOTATION_DOCUMENT>
  <TIME_ORDER/>
  <TIER TIER_ID="gloss">
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="g1" ANNOTATION_REF="missing">
        <ANNOTATION_VALUE>NEG</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
  </TIER>
</ANNOTATION_DOCUMENT>`
	doc, err := Parse([]byte(dangling))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	glosses, _ := doc.Tier("gloss")
	if len(glosses) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(glosses))
	}
	if glosses[0].StartMs != 0 || glosses[0].EndMs != 0 {
		t.Errorf("dangling ref should degrade to zero times, got [%d,%d)", glosses[0].StartMs, glosses[0].EndMs)
	}
}

func TestParse_DegradedTimesLogged(t *testing.T) {
	const degraded = `<?xml version="1.0"?>
<ANNOTATION_DOCUMENT>
  <TIME_ORDER>
    <TIME_SLOT TIME_SLOT_ID="ts1"/>
    <TIME_SLOT TIME_SLOT_ID="ts2" TIME_VALUE="1400"/>
  </TIME_ORDER>
  <TIER TIER_ID="text">
    <ANNOTATION>
      <ALIGNABLE_ANNOTATION ANNOTATION_ID="a1" TIME_SLOT_REF1="ts1" TIME_SLOT_REF2="ts2">
        <ANNOTATION_VALUE>mada.</ANNOTATION_VALUE>
      </ALIGNABLE_ANNOTATION>
    </ANNOTATION>
  </TIER>
  <TIER TIER_ID="gloss">
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="g1" ANNOTATION_REF="missing">
        <ANNOTATION_VALUE>NEG</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
  </TIER>
</ANNOTATION_DOCUMENT>`

	var buf bytes.Buffer
	logging.InitLogger(logging.LevelWarn, logging.FormatText, &buf)
	defer logging.InitLogger(logging.LevelInfo, logging.FormatText, os.Stderr)

	doc, err := Parse([]byte(degraded))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	text, _ := doc.Tier("text")
	if text[0].StartMs != 0 || text[0].EndMs != 1400 {
		t.Errorf("unvalued slot should degrade to zero, got [%d,%d)", text[0].StartMs, text[0].EndMs)
	}

	out := buf.String()
	for _, want := range []string{
		"time slot without value",
		"unresolved time slot reference",
		"dangling annotation reference",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected warning %q in log output:\n%s", want, out)
		}
	}
}

func TestQuery(t *testing.T) {
	doc, err := Parse([]byte(sampleEAF))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	values, err := doc.Query("//TIER[@TIER_ID='morph@KS']//ANNOTATION_VALUE")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(values))
	}
	if values[0] != "taka" {
		t.Errorf("expected first value taka, got %q", values[0])
	}

	if _, err := doc.Query("///["); err == nil {
		t.Error("expected error for invalid xpath")
	}
}
