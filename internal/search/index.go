// Package search provides a simple, deterministic, concurrency-safe
// in-memory index over the field catalog, so operators can find a field by
// any text it carries (label, category, or recommendation copy). It is
// intentionally small and dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// field's token set: score = |Q ∩ F| / |Q ∪ F|.
package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// Result is one ranked catalog match.
type Result struct {
	FieldID string
	Label   string
	Score   float64
}

// Index is the minimal interface implemented by catalog indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
}

func defaultConfig() config {
	return config{stopwords: nil}
}

// WithStopwords removes the given words from both documents and queries
// before matching. Matching is case-insensitive.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	id     string
	label  string
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// NewCatalogIndex builds a read-only index over the given fields. Each
// field becomes one document made of its label, category name, and the
// three recommendation texts. Fields whose text tokenizes to nothing are
// skipped.
func NewCatalogIndex(fields []domain.Field, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(fields))
	for _, f := range fields {
		text := strings.Join([]string{f.Label, f.Category, f.High, f.Normal, f.Low}, "\n")
		toks := tokenize(text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{id: f.ID, label: f.Label, tokens: toks, tLen: len(toks)})
	}
	return &index{cfg: cfg, docs: docs}
}

// TopK returns up to k best-matching fields by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 5
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	buf := make([]Result, 0, len(i.docs))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		buf = append(buf, Result{FieldID: d.id, Label: d.label, Score: float64(over) / union})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		return buf[a].FieldID < buf[b].FieldID
	})

	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
