// Package memory is an in-memory passage index used as the retrieval
// backend for development and tests. Passages are grouped into named
// collections and scored by case-folded term overlap with the query.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/arttech/assistant-gateway/internal/domain"
)

// Index is an in-memory implementation of domain.Retriever.
type Index struct {
	mu          sync.RWMutex
	collections map[string][]domain.Passage
}

var _ domain.Retriever = (*Index)(nil)

// New creates an empty index.
func New() *Index {
	return &Index{
		collections: make(map[string][]domain.Passage),
	}
}

// Add stores a passage in the named collection.
func (idx *Index) Add(collection string, p domain.Passage) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.collections[collection] = append(idx.collections[collection], p)
}

// seedFile is the JSON shape of a corpus seed file.
type seedFile struct {
	Collections map[string][]domain.Passage `json:"collections"`
}

// LoadFile loads a JSON seed corpus into the index.
func (idx *Index) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading corpus file: %w", err)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parsing corpus file: %w", err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for collection, passages := range seed.Collections {
		idx.collections[collection] = append(idx.collections[collection], passages...)
	}
	return nil
}

// Ready reports whether the index holds any passages.
func (idx *Index) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, passages := range idx.collections {
		if len(passages) > 0 {
			return true
		}
	}
	return false
}

// Search scores passages in the scoped collections by term overlap and
// returns the top K by descending score. Zero-score passages are dropped,
// so an off-topic query yields an empty result.
func (idx *Index) Search(ctx context.Context, query string, scope []string, topK int) ([]domain.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []domain.Passage{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var scored []domain.Passage
	for _, collection := range scope {
		for _, p := range idx.collections[collection] {
			score := overlapScore(terms, tokenize(p.Content))
			if score <= 0 {
				continue
			}
			p.Score = score
			scored = append(scored, p)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// overlapScore is the fraction of query terms present in the passage.
func overlapScore(queryTerms, passageTerms []string) float64 {
	passageSet := make(map[string]struct{}, len(passageTerms))
	for _, term := range passageTerms {
		passageSet[term] = struct{}{}
	}

	matched := 0
	for _, term := range queryTerms {
		if _, ok := passageSet[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

// stopwords are excluded from scoring so filler words do not create
// spurious matches.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "be": {},
	"do": {}, "does": {}, "i": {}, "my": {}, "me": {}, "we": {}, "our": {},
	"you": {}, "your": {}, "to": {}, "of": {}, "for": {}, "in": {}, "on": {},
	"at": {}, "and": {}, "or": {}, "what": {}, "how": {}, "can": {}, "it": {},
	"this": {}, "that": {}, "with": {}, "about": {}, "get": {}, "have": {},
	"much": {}, "many": {}, "please": {},
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	terms := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
