package index

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
)

// BM25 constants. k1 controls term-frequency saturation, b controls length
// normalization; the defaults are the standard Robertson/Walker values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "has": true,
	"have": true, "in": true, "is": true, "it": true, "its": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "we": true, "were": true, "which": true, "with": true,
}

// Tokenize lowercases, strips non-alphanumeric runes and removes stop words.
// Both the corpus and queries go through this exact function so BM25 scores
// stay deterministic for identical input.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if !stopWords[f] {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

type lexicalDoc struct {
	meta     DocMeta
	termFreq map[string]int
	length   int // token count after stop-word removal
}

// DocMeta is the provenance carried with every indexed chunk.
type DocMeta struct {
	PaperId    uuid.UUID
	ChunkIndex int
	LibraryId  *uuid.UUID
	Text       string
}

// LexicalIndex is an in-memory BM25 inverted-statistics index over chunk
// text. Corpus statistics (document count, average length, document
// frequencies) are maintained incrementally on every upsert so scores stay
// comparable across the whole index. Safe for concurrent readers and a
// single writer.
type LexicalIndex struct {
	mu       sync.RWMutex
	docs     map[uuid.UUID]*lexicalDoc
	df       map[string]int
	totalLen int
}

func NewLexicalIndex() *LexicalIndex {
	return &LexicalIndex{
		docs: make(map[uuid.UUID]*lexicalDoc),
		df:   make(map[string]int),
	}
}

// Upsert indexes a chunk, replacing any previous version of it.
func (x *LexicalIndex) Upsert(chunkId uuid.UUID, meta DocMeta) {
	tokens := Tokenize(meta.Text)
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.removeLocked(chunkId)

	doc := &lexicalDoc{meta: meta, termFreq: tf, length: len(tokens)}
	x.docs[chunkId] = doc
	x.totalLen += doc.length
	for t := range tf {
		x.df[t]++
	}
}

// Remove drops a chunk from the index if present.
func (x *LexicalIndex) Remove(chunkId uuid.UUID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(chunkId)
}

// RemoveByPaper drops every chunk belonging to a paper.
func (x *LexicalIndex) RemoveByPaper(paperId uuid.UUID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, doc := range x.docs {
		if doc.meta.PaperId == paperId {
			x.removeLocked(id)
		}
	}
}

func (x *LexicalIndex) removeLocked(chunkId uuid.UUID) {
	doc, ok := x.docs[chunkId]
	if !ok {
		return
	}
	x.totalLen -= doc.length
	for t := range doc.termFreq {
		x.df[t]--
		if x.df[t] <= 0 {
			delete(x.df, t)
		}
	}
	delete(x.docs, chunkId)
}

// Query scores all documents against the query text and returns the top k,
// ordered by score descending with deterministic tie-breaks.
func (x *LexicalIndex) Query(text string, k int, libraryId *uuid.UUID) []Hit {
	terms := Tokenize(text)
	if len(terms) == 0 || k <= 0 {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	n := len(x.docs)
	if n == 0 {
		return nil
	}
	avgLen := float64(x.totalLen) / float64(n)
	if avgLen == 0 {
		avgLen = 1
	}

	var hits []Hit
	for id, doc := range x.docs {
		if libraryId != nil && (doc.meta.LibraryId == nil || *doc.meta.LibraryId != *libraryId) {
			continue
		}
		score := x.scoreLocked(terms, doc, float64(n), avgLen)
		if score > 0 {
			hits = append(hits, Hit{
				ChunkId:    id,
				PaperId:    doc.meta.PaperId,
				ChunkIndex: doc.meta.ChunkIndex,
				Score:      score,
				Text:       doc.meta.Text,
			})
		}
	}

	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func (x *LexicalIndex) scoreLocked(terms []string, doc *lexicalDoc, n, avgLen float64) float64 {
	var score float64
	lengthNorm := bm25K1 * (1 - bm25B + bm25B*float64(doc.length)/avgLen)
	for _, term := range terms {
		tf := doc.termFreq[term]
		if tf == 0 {
			continue
		}
		df := float64(x.df[term])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		score += idf * float64(tf) * (bm25K1 + 1) / (float64(tf) + lengthNorm)
	}
	return score
}

// Stats reported by the manager.
func (x *LexicalIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

func (x *LexicalIndex) TermCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.df)
}

// sortHits orders by score descending, then paper id, then chunk index so
// equal scores rank reproducibly across runs (map iteration is random).
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].PaperId != hits[j].PaperId {
			return hits[i].PaperId.String() < hits[j].PaperId.String()
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})
}
