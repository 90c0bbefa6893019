package objectkey

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Layout names accepted by New
const (
	LayoutEntry   = "entry"
	LayoutGitLike = "git-like"
)

// Generator defines the interface for poster object key strategies
type Generator interface {
	// GenerateKey creates an object key relative to the poster folder
	GenerateKey(entryID, fileName string) string
}

// New returns the generator for a layout name. An empty name selects the
// entry layout.
func New(layout string) (Generator, error) {
	switch layout {
	case "", LayoutEntry:
		return NewEntryGenerator(), nil
	case LayoutGitLike:
		return NewGitLikeGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported object key layout: %s", layout)
	}
}

// EntryGenerator groups posters by entry id
// Structure: {entryID}/{objectID}.{ext}
type EntryGenerator struct {
	NewObjectID func() uuid.UUID
}

func NewEntryGenerator() *EntryGenerator {
	return &EntryGenerator{NewObjectID: uuid.New}
}

func (g *EntryGenerator) GenerateKey(entryID, fileName string) string {
	return fmt.Sprintf("%s/%s%s", sanitizePathComponent(entryID), g.NewObjectID(), extension(fileName))
}

// GitLikeGenerator provides Git-style sharded storage independent of entry ids
// Structure: objects/ab/cd1234ef5678_filename
type GitLikeGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
	NewObjectID func() uuid.UUID
}

func NewGitLikeGenerator() *GitLikeGenerator {
	return &GitLikeGenerator{
		ShardLength: 2,
		NewObjectID: uuid.New,
	}
}

func (g *GitLikeGenerator) GenerateKey(entryID, fileName string) string {
	objectIDStr := strings.ReplaceAll(g.NewObjectID().String(), "-", "")

	shard := g.ShardLength
	if shard <= 0 || shard > len(objectIDStr) {
		shard = 2
	}

	filename := objectIDStr[shard:]
	if fileName != "" {
		filename = fmt.Sprintf("%s_%s", filename, sanitizeFilename(path.Base(fileName)))
	}
	return fmt.Sprintf("objects/%s/%s", objectIDStr[:shard], filename)
}

func extension(fileName string) string {
	ext := strings.ToLower(path.Ext(sanitizeFilename(fileName)))
	if len(ext) > 10 {
		return ""
	}
	return ext
}

// Helper functions for path sanitization
func sanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(filename)
}

func sanitizePathComponent(component string) string {
	component = sanitizeFilename(component)
	component = strings.Trim(component, ".")
	if component == "" {
		return "_"
	}
	return component
}
