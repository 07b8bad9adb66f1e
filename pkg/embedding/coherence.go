package embedding

// maxCoherencePairs caps the number of sentence pairs scored per chunk.
// Full pairwise scoring is O(n²) in sentence count; sampling is an
// acceptable approximation for long chunks.
const maxCoherencePairs = 64

// CoherenceScore measures how topically self-consistent a chunk is, as the
// mean pairwise cosine similarity of its sentence embeddings mapped into
// [0,1]. Vectors must be unit-normalized. Chunks with fewer than two
// sentences score 1: a single sentence is trivially coherent.
func CoherenceScore(sentenceVectors [][]float32) float64 {
	n := len(sentenceVectors)
	if n < 2 {
		return 1.0
	}

	pairs := allPairs(n)
	if len(pairs) > maxCoherencePairs {
		pairs = samplePairs(pairs, maxCoherencePairs)
	}

	var sum float64
	for _, p := range pairs {
		sum += Dot(sentenceVectors[p[0]], sentenceVectors[p[1]])
	}
	mean := sum / float64(len(pairs))

	// Cosine ranges over [-1,1]; the score is its [0,1] rescaling.
	score := (mean + 1.0) / 2.0
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func allPairs(n int) [][2]int {
	pairs := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

// samplePairs picks an evenly strided subset so the score is deterministic
// for identical input, unlike random sampling.
func samplePairs(pairs [][2]int, limit int) [][2]int {
	sampled := make([][2]int, 0, limit)
	step := float64(len(pairs)) / float64(limit)
	for i := 0; i < limit; i++ {
		sampled = append(sampled, pairs[int(float64(i)*step)])
	}
	return sampled
}
