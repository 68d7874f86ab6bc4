// End-to-end conversion tests: a complete ELAN file goes through
// parsing, alignment, both renderers, clip extraction and export.
package integration

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldnote/igt/core/align"
	"github.com/fieldnote/igt/core/eaf"
	"github.com/fieldnote/igt/core/igt"
	"github.com/fieldnote/igt/internal/clips"
	"github.com/fieldnote/igt/internal/export"
	"github.com/fieldnote/igt/internal/render/gb4e"
	"github.com/fieldnote/igt/internal/render/plaintext"
)

// sessionEAF is a two-sentence four-tier session. The second sentence
// has a deliberate morph/gloss count mismatch, so a conversion keeps
// sentence one and reports sentence two.
const sessionEAF = `<?xml version="1.0" encoding="UTF-8"?>
<ANNOTATION_DOCUMENT AUTHOR="" DATE="2024-01-01T00:00:00Z" FORMAT="3.0" VERSION="3.0">
  <HEADER MEDIA_FILE="" TIME_UNITS="milliseconds">
    <MEDIA_DESCRIPTOR MEDIA_URL="session.wav" MIME_TYPE="audio/x-wav"/>
  </HEADER>
  <TIME_ORDER>
    <TIME_SLOT TIME_SLOT_ID="ts1" TIME_VALUE="600"/>
    <TIME_SLOT TIME_SLOT_ID="ts2" TIME_VALUE="1400"/>
    <TIME_SLOT TIME_SLOT_ID="ts3" TIME_VALUE="1500"/>
    <TIME_SLOT TIME_SLOT_ID="ts4" TIME_VALUE="2300"/>
  </TIME_ORDER>
  <TIER LINGUISTIC_TYPE_REF="default" TIER_ID="text">
    <ANNOTATION>
      <ALIGNABLE_ANNOTATION ANNOTATION_ID="a1" TIME_SLOT_REF1="ts1" TIME_SLOT_REF2="ts2">
        <ANNOTATION_VALUE>taka-ta=wa.</ANNOTATION_VALUE>
      </ALIGNABLE_ANNOTATION>
    </ANNOTATION>
    <ANNOTATION>
      <ALIGNABLE_ANNOTATION ANNOTATION_ID="a10" TIME_SLOT_REF1="ts3" TIME_SLOT_REF2="ts4">
        <ANNOTATION_VALUE>miti ima?</ANNOTATION_VALUE>
      </ALIGNABLE_ANNOTATION>
    </ANNOTATION>
  </TIER>
  <TIER LINGUISTIC_TYPE_REF="subdivision" PARENT_REF="text" TIER_ID="morph">
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
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="a11" ANNOTATION_REF="a10">
        <ANNOTATION_VALUE>miti</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="a12" ANNOTATION_REF="a10">
        <ANNOTATION_VALUE>ima</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
  </TIER>
  <TIER LINGUISTIC_TYPE_REF="association" PARENT_REF="morph" TIER_ID="gloss">
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
    <ANNOTATION>
      <REF_ANNOTATION ANNOTATION_ID="a13" ANNOTATION_REF="a11">
        <ANNOTATION_VALUE>road</ANNOTATION_VALUE>
      </REF_ANNOTATION>
    </ANNOTATION>
  </TIER>
  <TIER LINGUISTIC_TYPE_REF="default" TIER_ID="translation">
    <ANNOTATION>
      <ALIGNABLE_ANNOTATION ANNOTATION_ID="a8" TIME_SLOT_REF1="ts1" TIME_SLOT_REF2="ts2">
        <ANNOTATION_VALUE>It was a mushroom.</ANNOTATION_VALUE>
      </ALIGNABLE_ANNOTATION>
    </ANNOTATION>
    <ANNOTATION>
      <ALIGNABLE_ANNOTATION ANNOTATION_ID="a9" TIME_SLOT_REF1="ts3" TIME_SLOT_REF2="ts4">
        <ANNOTATION_VALUE>The road, now?</ANNOTATION_VALUE>
      </ALIGNABLE_ANNOTATION>
    </ANNOTATION>
  </TIER>
</ANNOTATION_DOCUMENT>`

func convert(t *testing.T) (*igt.Document, *igt.Report) {
	t.Helper()
	src, err := eaf.Parse([]byte(sessionEAF))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	doc, report, err := align.Build(src, align.Options{
		Schema: igt.SchemaFourTier,
		Tiers: igt.TierMap{
			igt.RoleText:        "text",
			igt.RoleMorph:       "morph",
			igt.RoleGloss:       "gloss",
			igt.RoleTranslation: "translation",
		},
		SourcePath: "session.eaf",
		SourceHash: src.Hash(),
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return doc, report
}

func TestPipeline_AlignAndReport(t *testing.T) {
	doc, report := convert(t)

	if report.Total != 2 || report.Skipped != 1 {
		t.Fatalf("report: total=%d skipped=%d, want 2/1", report.Total, report.Skipped)
	}
	if report.RunID == "" {
		t.Error("report has no run ID")
	}

	first := doc.Sentences[0]
	if first.Skipped {
		t.Fatalf("first sentence skipped: %s", first.SkipReason)
	}
	if len(first.Morphemes) != 3 {
		t.Errorf("expected 3 morphemes, got %d", len(first.Morphemes))
	}
	if first.Morphemes[2].Boundary != igt.BoundaryClitic {
		t.Errorf("expected clitic boundary, got %q", first.Morphemes[2].Boundary)
	}

	second := doc.Sentences[1]
	if !second.Skipped {
		t.Fatal("count-mismatched sentence not skipped")
	}
	if second.Translation != "The road, now?" {
		t.Errorf("skipped sentence lost its translation: %q", second.Translation)
	}
}

func TestPipeline_Renderers(t *testing.T) {
	doc, _ := convert(t)

	text := plaintext.Render(doc, plaintext.Options{SmallCaps: true})
	if !strings.Contains(text, "(1) taka-ta=wa") {
		t.Errorf("plain text missing example:\n%s", text)
	}
	if !strings.Contains(text, "mushroom-ᴘꜱᴛ=ᴛᴏᴘ") {
		t.Errorf("plain text gloss line wrong:\n%s", text)
	}
	if !strings.Contains(text, "(2) miti ima?") {
		t.Errorf("skipped sentence missing from plain text:\n%s", text)
	}

	tex := gb4e.Render(doc, gb4e.Options{SmallCaps: true})
	if !strings.Contains(tex, "\\gll taka-ta=wa\\\\") {
		t.Errorf("LaTeX missing morpheme line:\n%s", tex)
	}
	if !strings.Contains(tex, "mushroom-\\textsc{pst}=\\textsc{top}") {
		t.Errorf("LaTeX gloss line wrong:\n%s", tex)
	}
	if !strings.Contains(tex, "\\glt `The road, now?'") {
		t.Errorf("skipped sentence translation missing from LaTeX:\n%s", tex)
	}
}

func TestPipeline_Exports(t *testing.T) {
	doc, report := convert(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "session.json")
	if err := export.JSON(doc, report, jsonPath); err != nil {
		t.Fatalf("JSON export failed: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var bundle export.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatalf("JSON output invalid: %v", err)
	}
	if bundle.Report.Skipped != 1 {
		t.Errorf("report lost in JSON round trip: %+v", bundle.Report)
	}

	dbPath := filepath.Join(dir, "session.db")
	if err := export.SQLite(doc, report, dbPath); err != nil {
		t.Fatalf("SQLite export failed: %v", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM morphemes").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 morpheme rows, got %d", n)
	}
}

func TestPipeline_Clips(t *testing.T) {
	doc, report := convert(t)
	dir := t.TempDir()

	// Mono 16-bit at 1 kHz, 3 seconds.
	frames := make([]byte, 2*3000)
	wav := make([]byte, 44+len(frames))
	le := binary.LittleEndian
	copy(wav[0:4], "RIFF")
	le.PutUint32(wav[4:8], uint32(36+len(frames)))
	copy(wav[8:12], "WAVE")
	copy(wav[12:16], "fmt ")
	le.PutUint32(wav[16:20], 16)
	le.PutUint16(wav[20:22], 1)
	le.PutUint16(wav[22:24], 1)
	le.PutUint32(wav[24:28], 1000)
	le.PutUint32(wav[28:32], 2000)
	le.PutUint16(wav[32:34], 2)
	le.PutUint16(wav[34:36], 16)
	copy(wav[36:40], "data")
	le.PutUint32(wav[40:44], uint32(len(frames)))
	wavPath := filepath.Join(dir, "session.wav")
	if err := os.WriteFile(wavPath, wav, 0644); err != nil {
		t.Fatal(err)
	}

	m, err := clips.Extract(doc, clips.Options{
		WAVPath: wavPath,
		OutDir:  filepath.Join(dir, "clips"),
		RunID:   report.RunID,
	})
	if err != nil {
		t.Fatalf("clip extraction failed: %v", err)
	}
	if len(m.Clips) != 1 || len(m.Skipped) != 1 {
		t.Fatalf("expected 1 clip and 1 skip, got %d/%d", len(m.Clips), len(m.Skipped))
	}
	if _, err := os.Stat(filepath.Join(dir, "clips", m.Clips[0].File)); err != nil {
		t.Errorf("clip file missing: %v", err)
	}
}
