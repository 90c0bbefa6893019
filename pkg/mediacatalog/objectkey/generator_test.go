package objectkey

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

var fixedObjectID = uuid.MustParse("987fcdeb-51a2-43d1-9f12-345678901234")

func fixedID() uuid.UUID { return fixedObjectID }

func TestEntryGenerator(t *testing.T) {
	gen := &EntryGenerator{NewObjectID: fixedID}

	tests := []struct {
		name     string
		entryID  string
		fileName string
		expected string
	}{
		{"without filename", "tt1160419", "", "tt1160419/987fcdeb-51a2-43d1-9f12-345678901234"},
		{"keeps lowercased extension", "tt1160419", "Dune Poster.JPG", "tt1160419/987fcdeb-51a2-43d1-9f12-345678901234.jpg"},
		{"sanitizes entry id", "../evil", "a.png", "_evil/987fcdeb-51a2-43d1-9f12-345678901234.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gen.GenerateKey(tt.entryID, tt.fileName)
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestGitLikeGenerator(t *testing.T) {
	gen := NewGitLikeGenerator()
	gen.NewObjectID = fixedID

	got := gen.GenerateKey("tt1160419", "my poster.png")
	if !strings.HasPrefix(got, "objects/98/") {
		t.Errorf("expected shard prefix objects/98/, got %s", got)
	}
	if !strings.HasSuffix(got, "_my_poster.png") {
		t.Errorf("expected sanitized filename suffix, got %s", got)
	}
	if strings.Contains(got, "tt1160419") {
		t.Errorf("git-like keys must not embed the entry id, got %s", got)
	}
}

func TestNew(t *testing.T) {
	for _, layout := range []string{"", LayoutEntry, LayoutGitLike} {
		if _, err := New(layout); err != nil {
			t.Errorf("layout %q: unexpected error %v", layout, err)
		}
	}
	if _, err := New("hashed"); err == nil {
		t.Error("expected error for unknown layout")
	}
}
