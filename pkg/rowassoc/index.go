package rowassoc

import (
	"sort"

	"github.com/gardar/lineitems/pkg/extract"
)

// tokenIndex answers "which tokens overlap this span" without a full scan.
// Tokens are sorted by start offset; maxEnd[i] is the largest end offset among
// tokens[0..i], which is non-decreasing and therefore binary searchable.
type tokenIndex struct {
	tokens []extract.OCRToken
	maxEnd []int
}

func newTokenIndex(tokens []extract.OCRToken) *tokenIndex {
	sorted := make([]extract.OCRToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DocOffset.Start < sorted[j].DocOffset.Start
	})

	maxEnd := make([]int, len(sorted))
	for i, tok := range sorted {
		maxEnd[i] = tok.DocOffset.End
		if i > 0 && maxEnd[i-1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &tokenIndex{tokens: sorted, maxEnd: maxEnd}
}

// overlapping returns the tokens whose span intersects span, in offset order
func (idx *tokenIndex) overlapping(span extract.Span) []extract.OCRToken {
	if span.Start >= span.End {
		return nil
	}

	// Tokens from hi onwards start at or after the span's end
	hi := sort.Search(len(idx.tokens), func(i int) bool {
		return idx.tokens[i].DocOffset.Start >= span.End
	})
	// Tokens before lo all end at or before the span's start
	lo := sort.Search(hi, func(i int) bool {
		return idx.maxEnd[i] > span.Start
	})

	var result []extract.OCRToken
	for _, tok := range idx.tokens[lo:hi] {
		if tok.DocOffset.Overlaps(span) {
			result = append(result, tok)
		}
	}
	return result
}

// coveringBox merges the boxes of tokens into their smallest covering box.
// The tokens must all sit on one page; otherwise the distinct pages are returned.
func coveringBox(tokens []extract.OCRToken) (int, extract.Position, []int) {
	page := tokens[0].PageNum
	box := tokens[0].Position

	var pages []int
	for _, tok := range tokens[1:] {
		if tok.PageNum != page {
			pages = distinctPages(tokens)
			break
		}
		box = box.Union(tok.Position)
	}
	return page, box, pages
}

func distinctPages(tokens []extract.OCRToken) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, tok := range tokens {
		if !seen[tok.PageNum] {
			seen[tok.PageNum] = true
			pages = append(pages, tok.PageNum)
		}
	}
	sort.Ints(pages)
	return pages
}
