package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yolodolo42/notecompanion/internal/vault"
	"golang.org/x/sync/errgroup"
)

// SearchResult is one note matching a search query
type SearchResult struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Reference string `json:"reference"`
	Path      string `json:"path"`
}

// SearchNotesIn returns every document in v that contains all whitespace
// separated terms of query as whole words, case-insensitively. Each document
// is read on its own goroutine; results keep the vault's list order.
func SearchNotesIn(ctx context.Context, v vault.Vault, query string) ([]SearchResult, error) {
	if v == nil {
		return nil, fmt.Errorf("no vault configured")
	}

	docs, err := v.List(ctx)
	if err != nil {
		return nil, err
	}

	matchers := compileTerms(query)
	matches := make([]*SearchResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		g.Go(func() error {
			content, err := v.Read(gctx, doc)
			if err != nil {
				return err
			}
			if !matchesAll(matchers, content) {
				return nil
			}
			matches[i] = &SearchResult{
				Title:     doc.Basename,
				Content:   content,
				Reference: "Search query: " + query,
				Path:      doc.Path,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(docs))
	for _, m := range matches {
		if m != nil {
			results = append(results, *m)
		}
	}
	return results, nil
}

// compileTerms builds one word-boundary matcher per lowercase query term.
// Terms are quoted so punctuation in the query stays literal.
func compileTerms(query string) []*regexp.Regexp {
	terms := strings.Fields(strings.ToLower(query))
	matchers := make([]*regexp.Regexp, 0, len(terms))
	for _, term := range terms {
		matchers = append(matchers, regexp.MustCompile(`(?i)(^|\W)`+regexp.QuoteMeta(term)+`(\W|$)`))
	}
	return matchers
}

func matchesAll(matchers []*regexp.Regexp, content string) bool {
	for _, m := range matchers {
		if !m.MatchString(content) {
			return false
		}
	}
	return true
}
