package rowassoc

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/lineitems/pkg/extract"
)

var lineItemFields = []string{"line_date", "line_value", "line_description"}

func pred(label string, start, end int, text string) extract.Prediction {
	return extract.Prediction{Label: label, Start: start, End: end, Text: text}
}

func token(page, start, end int, top, bot, left, right float64) extract.OCRToken {
	return extract.OCRToken{
		PageNum:   page,
		DocOffset: extract.Span{Start: start, End: end},
		Position:  extract.Position{BBTop: top, BBBot: bot, BBLeft: left, BBRight: right},
	}
}

func intPtr(n int) *int { return &n }

func run(t *testing.T, preds []extract.Prediction, tokens []extract.OCRToken, opts ...Option) *Association {
	t.Helper()
	a, err := NewAssociation(lineItemFields, preds, opts...)
	require.NoError(t, err)
	require.NoError(t, a.GetBoundingBoxes(tokens))
	require.NoError(t, a.AssignRowNumbers())
	return a
}

func TestAssociation_SingleTokenCoversBothPredictions(t *testing.T) {
	preds := []extract.Prediction{
		pred("line_value", 20, 23, "$12"),
		pred("line_date", 12, 18, "1/2/2021"),
	}
	tokens := []extract.OCRToken{token(0, 12, 23, 0, 100, 423, 833)}

	a := run(t, preds, tokens)
	want := extract.Position{BBTop: 0, BBBot: 100, BBLeft: 423, BBRight: 833}

	for _, p := range a.UpdatedPredictions() {
		require.NotNil(t, p.PageNum)
		require.NotNil(t, p.Position)
		require.NotNil(t, p.RowNumber)
		assert.Equal(t, 0, *p.PageNum)
		assert.Equal(t, want, *p.Position)
		assert.Equal(t, 0, *p.RowNumber)
	}

	groups := a.LineItemGroups()
	require.Len(t, groups, 1)
	assert.Equal(t, 0, groups[0].RowNumber)
	assert.Equal(t, []string{"line_value", "line_date"}, groups[0].Labels())
}

func TestAssociation_MutatesCallerSlice(t *testing.T) {
	preds := []extract.Prediction{pred("line_value", 0, 3, "$12")}
	run(t, preds, []extract.OCRToken{token(0, 0, 3, 10, 20, 30, 40)})

	require.NotNil(t, preds[0].RowNumber)
	assert.Equal(t, 0, *preds[0].RowNumber)
}

func TestAssociation_CoveringBox(t *testing.T) {
	t.Run("one token gives its exact box", func(t *testing.T) {
		preds := []extract.Prediction{pred("line_description", 5, 9, "Nuts")}
		tokens := []extract.OCRToken{
			token(0, 0, 4, 0, 10, 0, 40),
			token(0, 5, 9, 12.5, 30, 50, 90.25),
			token(0, 10, 14, 0, 10, 100, 140),
		}
		a := run(t, preds, tokens)
		got := a.UpdatedPredictions()[0]
		assert.Equal(t, tokens[1].Position, *got.Position)
	})

	t.Run("several tokens give the minimal covering box", func(t *testing.T) {
		preds := []extract.Prediction{pred("line_description", 2, 17, "Bolts and nuts")}
		tokens := []extract.OCRToken{
			token(0, 0, 7, 10, 30, 20, 60),
			token(0, 8, 11, 8, 28, 65, 90),
			token(0, 12, 17, 12, 35, 95, 130),
			token(0, 18, 22, 0, 5, 0, 5),
		}
		a := run(t, preds, tokens)
		got := a.UpdatedPredictions()[0]
		assert.Equal(t, extract.Position{BBTop: 8, BBBot: 35, BBLeft: 20, BBRight: 130}, *got.Position)
	})

	t.Run("token order in the input does not matter", func(t *testing.T) {
		preds := []extract.Prediction{pred("line_value", 3, 12, "12 00")}
		tokens := []extract.OCRToken{
			token(0, 9, 12, 5, 15, 50, 60),
			token(0, 100, 120, 0, 1, 0, 1),
			token(0, 3, 5, 4, 14, 10, 20),
		}
		a := run(t, preds, tokens)
		got := a.UpdatedPredictions()[0]
		assert.Equal(t, extract.Position{BBTop: 4, BBBot: 15, BBLeft: 10, BBRight: 60}, *got.Position)
	})

	t.Run("a long token overlapping later short tokens is still found", func(t *testing.T) {
		preds := []extract.Prediction{pred("line_value", 40, 42, "$9")}
		tokens := []extract.OCRToken{
			token(0, 0, 50, 0, 10, 0, 500),
			token(0, 10, 12, 20, 30, 0, 10),
		}
		a := run(t, preds, tokens)
		got := a.UpdatedPredictions()[0]
		assert.Equal(t, tokens[0].Position, *got.Position)
	})
}

func TestAssociation_Unmatched(t *testing.T) {
	newPreds := func() []extract.Prediction {
		return []extract.Prediction{
			pred("line_date", 0, 8, "1/2/2021"),
			pred("line_value", 50, 53, "$12"),
		}
	}
	tokens := []extract.OCRToken{token(0, 0, 8, 0, 10, 0, 80)}

	t.Run("error policy fails and writes nothing", func(t *testing.T) {
		preds := newPreds()
		a, err := NewAssociation(lineItemFields, preds)
		require.NoError(t, err)

		err = a.GetBoundingBoxes(tokens)
		var unmatched *UnmatchedTokenError
		require.True(t, errors.As(err, &unmatched))
		assert.Equal(t, 1, unmatched.Index)
		assert.Equal(t, "line_value", unmatched.Label)
		assert.Equal(t, extract.Span{Start: 50, End: 53}, unmatched.Span)

		assert.Nil(t, preds[0].Position, "a failed run must not partially enrich")
		assert.ErrorIs(t, a.AssignRowNumbers(), ErrNotEnriched)
	})

	t.Run("skip policy leaves the prediction bare", func(t *testing.T) {
		preds := newPreds()
		a := run(t, preds, tokens, WithUnmatchedPolicy(UnmatchedSkip))

		assert.NotNil(t, preds[0].RowNumber)
		assert.Nil(t, preds[1].Position)
		assert.Nil(t, preds[1].PageNum)
		assert.Nil(t, preds[1].RowNumber)

		skipped := a.Unmatched()
		require.Len(t, skipped, 1)
		assert.Equal(t, "line_value", skipped[0].Label)

		groups := a.LineItemGroups()
		require.Len(t, groups, 1)
		assert.Equal(t, []string{"line_date"}, groups[0].Labels())
	})

	t.Run("skip policy drops box and row carried on input", func(t *testing.T) {
		stale := pred("line_value", 50, 53, "$12")
		stale.PageNum = intPtr(0)
		stale.Position = &extract.Position{BBTop: 5, BBBot: 10, BBLeft: 0, BBRight: 30}
		stale.RowNumber = intPtr(7)
		placed := pred("line_date", 0, 8, "1/2/2021")
		placed.RowNumber = intPtr(4)
		preds := []extract.Prediction{placed, stale}

		a := run(t, preds, tokens, WithUnmatchedPolicy(UnmatchedSkip))

		assert.Nil(t, preds[1].PageNum)
		assert.Nil(t, preds[1].Position)
		assert.Nil(t, preds[1].RowNumber)
		require.Len(t, a.Unmatched(), 1)
		require.NotNil(t, preds[0].RowNumber)
		assert.Equal(t, 0, *preds[0].RowNumber)

		groups := a.LineItemGroups()
		require.Len(t, groups, 1)
		assert.Equal(t, 0, groups[0].RowNumber)
		assert.Equal(t, []string{"line_date"}, groups[0].Labels())
	})

	t.Run("empty prediction span matches nothing", func(t *testing.T) {
		preds := []extract.Prediction{pred("line_date", 4, 4, "")}
		a, err := NewAssociation(lineItemFields, preds)
		require.NoError(t, err)
		var unmatched *UnmatchedTokenError
		assert.True(t, errors.As(a.GetBoundingBoxes(tokens), &unmatched))
	})
}

func TestAssociation_PageMismatch(t *testing.T) {
	t.Run("tokens on different pages", func(t *testing.T) {
		preds := []extract.Prediction{pred("line_description", 0, 20, "split across pages")}
		tokens := []extract.OCRToken{
			token(1, 0, 10, 900, 950, 0, 100),
			token(0, 11, 20, 0, 50, 0, 100),
		}
		a, err := NewAssociation(lineItemFields, preds)
		require.NoError(t, err)

		var mismatch *PageMismatchError
		require.True(t, errors.As(a.GetBoundingBoxes(tokens), &mismatch))
		assert.Equal(t, []int{0, 1}, mismatch.Pages)
		assert.Nil(t, preds[0].PageNum)
	})

	t.Run("declared page disagrees with tokens", func(t *testing.T) {
		p := pred("line_value", 0, 3, "$12")
		p.PageNum = intPtr(2)
		preds := []extract.Prediction{p}
		a, err := NewAssociation(lineItemFields, preds)
		require.NoError(t, err)

		var mismatch *PageMismatchError
		require.True(t, errors.As(a.GetBoundingBoxes([]extract.OCRToken{token(0, 0, 3, 0, 10, 0, 10)}), &mismatch))
		assert.Equal(t, []int{2, 0}, mismatch.Pages)
	})
}

func TestAssociation_NonLineItemsUntouched(t *testing.T) {
	preds := []extract.Prediction{
		pred("invoice_number", 0, 6, "INV-01"),
		pred("line_value", 10, 13, "$12"),
		pred("vendor", 200, 210, "ACME Corp."),
	}
	tokens := []extract.OCRToken{
		token(0, 0, 6, 0, 10, 0, 60),
		token(0, 10, 13, 50, 60, 0, 30),
	}
	a := run(t, preds, tokens)

	assert.Nil(t, preds[0].Position)
	assert.Nil(t, preds[0].RowNumber)
	assert.Nil(t, preds[2].PageNum, "unmatched non line items never fail")
	assert.NotNil(t, preds[1].RowNumber)

	flat := Flatten(a.LineItemGroups())
	require.Len(t, flat, 1)
	assert.Equal(t, "line_value", flat[0].Label)
}

func TestAssociation_Configuration(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		opts   []Option
		want   error
	}{
		{"nil field set", nil, nil, ErrEmptyFieldSet},
		{"empty field set", []string{}, nil, ErrEmptyFieldSet},
		{"blank label", []string{"line_value", "  "}, nil, ErrInvalidLabel},
		{"negative tolerance", lineItemFields, []Option{WithRowTolerance(-1)}, ErrNegativeTolerance},
		{"unknown policy", lineItemFields, []Option{WithUnmatchedPolicy(UnmatchedPolicy(7))}, ErrUnknownPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAssociation(tt.fields, nil, tt.opts...)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	a, err := NewAssociation([]string{"line_value", "line_date", "line_value"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"line_date", "line_value"}, a.LineItemFields())
}

func TestAssociation_CallOrder(t *testing.T) {
	preds := []extract.Prediction{pred("line_value", 0, 3, "$12")}
	tokens := []extract.OCRToken{token(0, 0, 3, 0, 10, 0, 10)}

	a, err := NewAssociation(lineItemFields, preds)
	require.NoError(t, err)
	assert.ErrorIs(t, a.AssignRowNumbers(), ErrNotEnriched)

	require.NoError(t, a.GetBoundingBoxes(tokens))
	assert.ErrorIs(t, a.GetBoundingBoxes(tokens), ErrAlreadyEnriched)

	require.NoError(t, a.AssignRowNumbers())
	first := GroupByRow(a.UpdatedPredictions())
	require.NoError(t, a.AssignRowNumbers())
	assert.Equal(t, first, GroupByRow(a.UpdatedPredictions()), "row assignment is repeatable")
}

func TestParseUnmatchedPolicy(t *testing.T) {
	for in, want := range map[string]UnmatchedPolicy{"": UnmatchedError, "error": UnmatchedError, " Skip ": UnmatchedSkip} {
		got, err := ParseUnmatchedPolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseUnmatchedPolicy("ignore")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
	assert.Equal(t, "skip", UnmatchedSkip.String())
}

// randomDocument lays out rows of line items over a few pages with jittered
// boxes and shuffles the predictions.
func randomDocument(r *rand.Rand) ([]extract.Prediction, []extract.OCRToken) {
	var preds []extract.Prediction
	var tokens []extract.OCRToken
	offset := 0
	for page := 0; page < 3; page++ {
		rows := 1 + r.Intn(6)
		for row := 0; row < rows; row++ {
			top := float64(row*100) + r.Float64()*5
			for col, label := range lineItemFields {
				start := offset
				offset += 3 + r.Intn(5)
				tokens = append(tokens, token(page, start, offset, top+r.Float64()*3, top+40+r.Float64()*3, float64(col*200), float64(col*200+150)))
				preds = append(preds, pred(label, start, offset, "x"))
				offset++
			}
		}
	}
	r.Shuffle(len(preds), func(i, j int) { preds[i], preds[j] = preds[j], preds[i] })
	return preds, tokens
}

func TestAssociation_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for iter := 0; iter < 50; iter++ {
		preds, tokens := randomDocument(r)
		a := run(t, preds, tokens)
		enriched := a.UpdatedPredictions()

		// Row numbers never decrease when read in page, then vertical order
		ordered := make([]extract.Prediction, len(enriched))
		copy(ordered, enriched)
		sort.SliceStable(ordered, func(i, j int) bool {
			if *ordered[i].PageNum != *ordered[j].PageNum {
				return *ordered[i].PageNum < *ordered[j].PageNum
			}
			return ordered[i].BBTop < ordered[j].BBTop
		})
		for i := 1; i < len(ordered); i++ {
			assert.LessOrEqual(t, *ordered[i-1].RowNumber, *ordered[i].RowNumber)
		}

		// Rows never cross pages
		pageOfRow := make(map[int]int)
		for _, p := range enriched {
			if page, ok := pageOfRow[*p.RowNumber]; ok {
				assert.Equal(t, page, *p.PageNum)
			}
			pageOfRow[*p.RowNumber] = *p.PageNum
		}

		// Each row holds exactly one prediction per label in this layout
		groups := a.LineItemGroups()
		for i, g := range groups {
			assert.Equal(t, i, g.RowNumber, "row numbers are contiguous")
			assert.ElementsMatch(t, lineItemFields, g.Labels())
		}

		// Flattened groups equal the enriched list stably sorted by row
		byRow := make([]extract.Prediction, len(enriched))
		copy(byRow, enriched)
		sort.SliceStable(byRow, func(i, j int) bool { return *byRow[i].RowNumber < *byRow[j].RowNumber })
		assert.Equal(t, byRow, Flatten(groups))
	}
}
