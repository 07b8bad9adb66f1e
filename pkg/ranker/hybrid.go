package ranker

import (
	"sort"

	"citation-assist-be/pkg/index"
	"citation-assist-be/pkg/store"
)

// DefaultAlpha is the fusion weight given to the vector signal. Tunable via
// configuration; 0.5 weighs both signals equally.
const DefaultAlpha = 0.5

// Ranked is a fused candidate with its final confidence in [0,1].
type Ranked struct {
	store.Candidate
	Confidence float64
	Signal     store.Signal
}

// Rank merges the per-source candidate lists into one ordering according to
// the selected strategy. Single-source strategies pass their ranking
// through with scores min-max normalized to [0,1]; the hybrid strategy
// combines normalized scores as alpha*vector + (1-alpha)*lexical. A chunk
// missing from one source's top-k contributes 0 for that source instead of
// being excluded, so a chunk strongly favored by only one signal still
// surfaces. Output is deterministic for identical input.
func Rank(vectorHits, lexicalHits []index.Hit, strategy store.Strategy, alpha float64, k int) []Ranked {
	if alpha < 0 || alpha > 1 {
		alpha = DefaultAlpha
	}

	merged := map[string]*store.Candidate{}
	order := []string{}

	add := func(h index.Hit, vector bool) {
		key := h.ChunkId.String()
		c, ok := merged[key]
		if !ok {
			c = &store.Candidate{
				ChunkId:    h.ChunkId,
				PaperId:    h.PaperId,
				ChunkIndex: h.ChunkIndex,
				Text:       h.Text,
			}
			merged[key] = c
			order = append(order, key)
		}
		if vector {
			c.VectorScore = h.Score
			c.HasVector = true
		} else {
			c.LexicalScore = h.Score
			c.HasLexical = true
		}
	}

	switch strategy {
	case store.StrategyVector:
		for _, h := range vectorHits {
			add(h, true)
		}
	case store.StrategyBM25:
		for _, h := range lexicalHits {
			add(h, false)
		}
	default: // hybrid
		for _, h := range vectorHits {
			add(h, true)
		}
		for _, h := range lexicalHits {
			add(h, false)
		}
	}

	vecNorm := normalizer(vectorHits)
	lexNorm := normalizer(lexicalHits)

	ranked := make([]Ranked, 0, len(order))
	for _, key := range order {
		c := merged[key]
		r := Ranked{Candidate: *c}

		switch strategy {
		case store.StrategyVector:
			r.Confidence = vecNorm(c.VectorScore)
			r.Signal = store.SignalVector
		case store.StrategyBM25:
			r.Confidence = lexNorm(c.LexicalScore)
			r.Signal = store.SignalLexical
		default:
			var v, l float64
			if c.HasVector {
				v = vecNorm(c.VectorScore)
			}
			if c.HasLexical {
				l = lexNorm(c.LexicalScore)
			}
			r.Confidence = alpha*v + (1-alpha)*l
			r.Signal = store.SignalHybrid
		}
		ranked = append(ranked, r)
	}

	sortRanked(ranked)
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// normalizer builds a min-max rescaling over one source's returned batch.
// A degenerate batch (all scores equal) maps to 1.0; every returned hit is
// the best the source had to offer.
func normalizer(hits []index.Hit) func(float64) float64 {
	if len(hits) == 0 {
		return func(float64) float64 { return 0 }
	}
	min, max := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}
	if max == min {
		return func(float64) float64 { return 1 }
	}
	span := max - min
	return func(s float64) float64 { return (s - min) / span }
}

// sortRanked orders by confidence descending; ties break by higher raw
// vector similarity, then by paper id and lower chunk index, so identical
// input always yields identical output.
func sortRanked(ranked []Ranked) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.VectorScore != b.VectorScore {
			return a.VectorScore > b.VectorScore
		}
		if a.PaperId != b.PaperId {
			return a.PaperId.String() < b.PaperId.String()
		}
		return a.ChunkIndex < b.ChunkIndex
	})
}
