package chunker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyDocument    = errors.New("document text is empty")
	ErrMalformedOffsets = errors.New("structural hint offsets fall outside text bounds")
)

// Category classifies a chunk by the section of the paper it came from.
type Category string

const (
	CategoryAbstract     Category = "abstract"
	CategoryIntroduction Category = "introduction"
	CategoryMethods      Category = "methods"
	CategoryResults      Category = "results"
	CategoryDiscussion   Category = "discussion"
	CategoryConclusion   Category = "conclusion"
	CategoryReferences   Category = "references"
	CategoryOther        Category = "other"
)

// SectionHint marks where a detected section header starts in the full text.
type SectionHint struct {
	Title  string
	Offset int
}

// Hints carries optional structure recovered by the upstream text extractor.
type Hints struct {
	Sections   []SectionHint
	PageBreaks []int // byte offsets where a new page begins
}

// PageMark records where a page transition falls inside a chunk.
type PageMark struct {
	Page   int `json:"page"`
	Offset int `json:"offset"`
}

// Draft is a chunk before embedding. Offsets are half-open byte ranges into
// the paper's full text; drafts produced by Chunk partition the text exactly.
type Draft struct {
	Index         int
	Start         int
	End           int
	SectionTitle  *string
	Category      Category
	WordCount     int
	SentenceCount int
	PageStart     *int
	PageEnd       *int
	PageMarks     []PageMark
	Sentences     []Span // sentence spans, kept for the coherence pass
}

/// Options bounds chunk granularity. The band is a tunable, not a contract:
// a single sentence longer than MaxWords still becomes its own chunk.
type Options struct {
	MinWords int
	MaxWords int
}

func DefaultOptions() Options {
	return Options{MinWords: 150, MaxWords: 400}
}

// Chunk splits a paper's full text into ordered drafts. Sentences are
// grouped greedily until the word band is reached; a group never crosses a
// detected section boundary.
func Chunk(text string, hints *Hints, opts Options) ([]Draft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	if opts.MinWords <= 0 || opts.MaxWords < opts.MinWords {
		opts = DefaultOptions()
	}
	if hints != nil {
		if err := validateHints(text, hints); err != nil {
			return nil, err
		}
	}

	sentences := splitSentences(text)

	var sections []SectionHint
	var pageBreaks []int
	if hints != nil {
		sections = append([]SectionHint(nil), hints.Sections...)
		sort.Slice(sections, func(i, j int) bool { return sections[i].Offset < sections[j].Offset })
		pageBreaks = append([]int(nil), hints.PageBreaks...)
		sort.Ints(pageBreaks)
	}

	var drafts []Draft
	var group []Span
	groupWords := 0
	groupSection := sectionAt(sections, 0)

	flush := func() {
		if len(group) == 0 {
			return
		}
		drafts = append(drafts, buildDraft(text, group, sections, groupSection, pageBreaks, len(drafts)))
		group = nil
		groupWords = 0
	}

	for _, s := range sentences {
		words := countWords(text[s.Start:s.End])
		section := sectionAt(sections, s.Start)

		if len(group) > 0 && section != groupSection {
			flush()
		}
		if len(group) > 0 && groupWords+words > opts.MaxWords {
			flush()
		}
		groupSection = section
		group = append(group, s)
		groupWords += words

		if groupWords >= opts.MinWords {
			flush()
			groupSection = section
		}
	}
	flush()

	return drafts, nil
}

func validateHints(text string, hints *Hints) error {
	for _, s := range hints.Sections {
		if s.Offset < 0 || s.Offset >= len(text) {
			return fmt.Errorf("section %q at offset %d: %w", s.Title, s.Offset, ErrMalformedOffsets)
		}
	}
	for _, p := range hints.PageBreaks {
		if p < 0 || p > len(text) {
			return fmt.Errorf("page break at offset %d: %w", p, ErrMalformedOffsets)
		}
	}
	return nil
}

// sectionAt returns the hint covering the given offset, or -1 when the
// offset precedes the first detected section.
func sectionAt(sections []SectionHint, offset int) int {
	idx := -1
	for i, s := range sections {
		if s.Offset <= offset {
			idx = i
		} else {
			break
		}
	}
	return idx
}

func buildDraft(text string, group []Span, sections []SectionHint, sectionIdx int, pageBreaks []int, index int) Draft {
	start := group[0].Start
	end := group[len(group)-1].End

	words := 0
	for _, s := range group {
		words += countWords(text[s.Start:s.End])
	}

	title, category := sectionMeta(sections, sectionIdx)

	d := Draft{
		Index:         index,
		Start:         start,
		End:           end,
		SectionTitle:  title,
		Category:      category,
		WordCount:     words,
		SentenceCount: len(group),
		Sentences:     append([]Span(nil), group...),
	}

	if len(pageBreaks) > 0 {
		ps := pageAt(pageBreaks, start)
		pe := pageAt(pageBreaks, end-1)
		d.PageStart = &ps
		d.PageEnd = &pe
		for _, b := range pageBreaks {
			if b > start && b < end {
				d.PageMarks = append(d.PageMarks, PageMark{Page: pageAt(pageBreaks, b), Offset: b})
			}
		}
	}
	return d
}

// pageAt maps a byte offset to a 1-based page number given sorted page
// break offsets (each break is where the next page begins).
func pageAt(pageBreaks []int, offset int) int {
	page := 1
	for _, b := range pageBreaks {
		if b <= offset {
			page++
		} else {
			break
		}
	}
	return page
}

// sectionMeta resolves the title and category for a draft after grouping.
// Kept separate from buildDraft so Chunk can look it up by index.
func sectionMeta(sections []SectionHint, idx int) (*string, Category) {
	if idx < 0 || idx >= len(sections) {
		return nil, CategoryOther
	}
	title := sections[idx].Title
	return &title, categorize(title)
}

var categoryKeywords = []struct {
	keyword  string
	category Category
}{
	{"abstract", CategoryAbstract},
	{"introduction", CategoryIntroduction},
	{"background", CategoryIntroduction},
	{"method", CategoryMethods},
	{"materials", CategoryMethods},
	{"result", CategoryResults},
	{"finding", CategoryResults},
	{"discussion", CategoryDiscussion},
	{"conclusion", CategoryConclusion},
	{"concluding", CategoryConclusion},
	{"reference", CategoryReferences},
	{"bibliograph", CategoryReferences},
}

// categorize matches a section title against the controlled vocabulary.
func categorize(title string) Category {
	folded := strings.ToLower(title)
	for _, ck := range categoryKeywords {
		if strings.Contains(folded, ck.keyword) {
			return ck.category
		}
	}
	return CategoryOther
}
