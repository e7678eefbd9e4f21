package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Document is a single note in a vault.
type Document struct {
	Path     string    `json:"path"`     // slash-separated, relative to the vault root
	Basename string    `json:"basename"` // file name without extension
	ModTime  time.Time `json:"mod_time"`
}

// Vault is the document collection the embedding application hands us.
// Implementations must be safe for concurrent Read calls.
type Vault interface {
	List(ctx context.Context) ([]Document, error)
	Read(ctx context.Context, doc Document) (string, error)
}

// Dir is a Vault backed by a directory of markdown files.
type Dir struct {
	root string
	fsys fs.FS
}

// NewDir opens a directory vault rooted at root
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, fmt.Errorf("vault directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("vault path is not a directory: %s", abs)
	}
	return &Dir{root: abs, fsys: os.DirFS(abs)}, nil
}

// Root returns the absolute vault directory
func (d *Dir) Root() string {
	return d.root
}

// List returns every markdown file in the vault, sorted by path.
// Hidden files and directories (".obsidian", ".trash", ...) are skipped.
func (d *Dir) List(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := fs.WalkDir(d.fsys, ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := entry.Name()
		if p != "." && strings.HasPrefix(name, ".") {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !strings.EqualFold(path.Ext(name), ".md") {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		docs = append(docs, Document{
			Path:     p,
			Basename: strings.TrimSuffix(name, path.Ext(name)),
			ModTime:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list vault: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Read returns the content of a document
func (d *Dir) Read(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !fs.ValidPath(doc.Path) {
		return "", fmt.Errorf("invalid document path: %q", doc.Path)
	}
	b, err := fs.ReadFile(d.fsys, doc.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", doc.Path, err)
	}
	return string(b), nil
}

// ModifiedBetween filters docs to those modified in [start, end].
// A zero end means "up to now".
func ModifiedBetween(docs []Document, start, end time.Time) []Document {
	var out []Document
	for _, doc := range docs {
		if doc.ModTime.Before(start) {
			continue
		}
		if !end.IsZero() && doc.ModTime.After(end) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

// ModifiedSince returns docs modified at or after t, newest first
func ModifiedSince(docs []Document, t time.Time) []Document {
	out := ModifiedBetween(docs, t, time.Time{})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out
}
