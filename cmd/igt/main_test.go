package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldnote/igt/core/igt"
)

func TestTierMap_Defaults(t *testing.T) {
	m, err := tierMap(igt.SchemaFourTier, nil)
	if err != nil {
		t.Fatalf("tierMap failed: %v", err)
	}
	if m[igt.RoleText] != "text" || m[igt.RoleTranslation] != "translation" {
		t.Errorf("unexpected defaults: %v", m)
	}
}

func TestTierMap_Overrides(t *testing.T) {
	m, err := tierMap(igt.SchemaFourTier, map[string]string{
		"text":  "po@KS",
		"gloss": "ge@KS",
	})
	if err != nil {
		t.Fatalf("tierMap failed: %v", err)
	}
	if m[igt.RoleText] != "po@KS" || m[igt.RoleGloss] != "ge@KS" {
		t.Errorf("overrides not applied: %v", m)
	}
	if m[igt.RoleMorph] != "morph" {
		t.Errorf("default lost: %v", m)
	}
}

func TestTierMap_UnknownRole(t *testing.T) {
	if _, err := tierMap(igt.SchemaFourTier, map[string]string{"word": "wd@KS"}); err == nil {
		t.Fatal("expected error for role outside the schema")
	}
	// word is a valid role for the word-based layout.
	if _, err := tierMap(igt.SchemaWord, map[string]string{"word": "wd@KS"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMediaPath(t *testing.T) {
	dir := t.TempDir()
	eafPath := filepath.Join(dir, "session.eaf")
	wavPath := filepath.Join(dir, "session.wav")
	if err := os.WriteFile(wavPath, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		url  string
		want string
	}{
		{"", ""},
		{"session.wav", wavPath},
		{"file://" + wavPath, wavPath},
		{wavPath, wavPath},
		{"missing.wav", ""},
	}
	for _, c := range cases {
		if got := mediaPath(eafPath, c.url); got != c.want {
			t.Errorf("mediaPath(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
