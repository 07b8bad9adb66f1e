package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyDocument(t *testing.T) {
	_, err := Chunk("", nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Chunk("   \n\t  ", nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestChunkMalformedOffsets(t *testing.T) {
	text := "A short document. With two sentences."

	_, err := Chunk(text, &Hints{Sections: []SectionHint{{Title: "Intro", Offset: 999}}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrMalformedOffsets)

	_, err = Chunk(text, &Hints{PageBreaks: []int{-1}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrMalformedOffsets)
}

func TestChunkCoversTextExactly(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("The quick brown fox jumps over the lazy dog near the river bank. ")
	}
	text := sb.String()

	drafts, err := Chunk(text, nil, DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, drafts)

	// Ordered by index, chunks must partition the text with no gaps or overlaps.
	assert.Equal(t, 0, drafts[0].Start)
	for i, d := range drafts {
		assert.Equal(t, i, d.Index)
		assert.Less(t, d.Start, d.End)
		if i > 0 {
			assert.Equal(t, drafts[i-1].End, d.Start)
		}
	}
	assert.Equal(t, len(text), drafts[len(drafts)-1].End)
}

func TestChunkDeterministic(t *testing.T) {
	text := strings.Repeat("Deterministic splitting should not depend on run order. ", 40)

	first, err := Chunk(text, nil, DefaultOptions())
	require.NoError(t, err)
	second, err := Chunk(text, nil, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Start, second[i].Start)
		assert.Equal(t, first[i].End, second[i].End)
		assert.Equal(t, first[i].Category, second[i].Category)
		assert.Equal(t, first[i].PageMarks, second[i].PageMarks)
	}
}

func TestChunkSectionBoundary(t *testing.T) {
	text := "Intro sentence one. Intro sentence two. Methods sentence one."
	methodsStart := strings.Index(text, "Methods sentence")

	hints := &Hints{Sections: []SectionHint{
		{Title: "Introduction", Offset: 0},
		{Title: "Methods", Offset: methodsStart},
	}}

	drafts, err := Chunk(text, hints, DefaultOptions())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(drafts), 2)

	assert.Equal(t, CategoryIntroduction, drafts[0].Category)
	assert.Equal(t, CategoryMethods, drafts[1].Category)
	require.NotNil(t, drafts[0].SectionTitle)
	assert.Equal(t, "Introduction", *drafts[0].SectionTitle)
}

func TestChunkOversizedSentence(t *testing.T) {
	long := "Start " + strings.Repeat("word ", 60) + "end."
	text := "Short lead-in sentence here. " + long + " Trailing sentence after."

	drafts, err := Chunk(text, nil, Options{MinWords: 10, MaxWords: 20})
	require.NoError(t, err)

	// The oversized sentence must stand alone rather than merge with neighbors.
	found := false
	for _, d := range drafts {
		if d.SentenceCount == 1 && d.WordCount > 20 {
			found = true
		}
	}
	assert.True(t, found, "oversized sentence should become its own chunk")
}

func TestChunkPageTracking(t *testing.T) {
	s := "One sentence on the first page. "
	text := strings.Repeat(s, 4)
	breakAt := len(s) * 2

	drafts, err := Chunk(text, &Hints{PageBreaks: []int{breakAt}}, Options{MinWords: 500, MaxWords: 1000})
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	d := drafts[0]
	require.NotNil(t, d.PageStart)
	require.NotNil(t, d.PageEnd)
	assert.Equal(t, 1, *d.PageStart)
	assert.Equal(t, 2, *d.PageEnd)
	require.Len(t, d.PageMarks, 1)
	assert.Equal(t, 2, d.PageMarks[0].Page)
	assert.Equal(t, breakAt, d.PageMarks[0].Offset)
}

func TestChunkWordAndSentenceCounts(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon. Zeta eta theta iota."

	drafts, err := Chunk(text, nil, Options{MinWords: 100, MaxWords: 200})
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	assert.Equal(t, 3, drafts[0].SentenceCount)
	assert.Equal(t, 9, drafts[0].WordCount)
}

func TestSplitSentencesAbbreviations(t *testing.T) {
	text := "Prior work (e.g. Smith et al. 2020) shows gains. A second sentence follows."
	spans := splitSentences(text)
	assert.Len(t, spans, 2)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		title string
		want  Category
	}{
		{"Abstract", CategoryAbstract},
		{"1. Introduction", CategoryIntroduction},
		{"Background and Motivation", CategoryIntroduction},
		{"Materials and Methods", CategoryMethods},
		{"METHODOLOGY", CategoryMethods},
		{"Results", CategoryResults},
		{"Discussion", CategoryDiscussion},
		{"Concluding Remarks", CategoryConclusion},
		{"References", CategoryReferences},
		{"Acknowledgements", CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categorize(tt.title), tt.title)
	}
}
