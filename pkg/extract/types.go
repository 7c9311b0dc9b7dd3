// Package extract holds the shared value types that flow between the
// platform client, the row-association engine and the review rules:
// predictions, OCR tokens and the submission result document.
package extract

// Position is an axis-aligned pixel box using the platform's key names
type Position struct {
	BBTop   float64 `json:"bbTop"`
	BBBot   float64 `json:"bbBot"`
	BBLeft  float64 `json:"bbLeft"`
	BBRight float64 `json:"bbRight"`
}

// Height returns the vertical extent of the box
func (p Position) Height() float64 {
	return p.BBBot - p.BBTop
}

// Width returns the horizontal extent of the box
func (p Position) Width() float64 {
	return p.BBRight - p.BBLeft
}

// Union returns the smallest box covering both p and other
func (p Position) Union(other Position) Position {
	return Position{
		BBTop:   min(p.BBTop, other.BBTop),
		BBBot:   max(p.BBBot, other.BBBot),
		BBLeft:  min(p.BBLeft, other.BBLeft),
		BBRight: max(p.BBRight, other.BBRight),
	}
}

// PageSize is the pixel extent of a page as reported by the OCR engine
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Span is a half-open character range [Start, End) into the document text
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether the two half-open ranges share at least one offset.
// An empty range overlaps nothing.
func (s Span) Overlaps(other Span) bool {
	if s.Start >= s.End || other.Start >= other.End {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// OCRToken is a unit of recognized text with its page and pixel box
type OCRToken struct {
	PageNum   int      `json:"page_num"`
	Position  Position `json:"position"`
	DocOffset Span     `json:"doc_offset"`
	Text      string   `json:"text,omitempty"`
}

// Prediction is a labeled extraction with a character span into the document.
// PageNum, the embedded Position and RowNumber are filled in by row association.
type Prediction struct {
	Label      string             `json:"label"`
	Start      int                `json:"start"`
	End        int                `json:"end"`
	Text       string             `json:"text"`
	Confidence map[string]float64 `json:"confidence,omitempty"`

	PageNum   *int `json:"page_num,omitempty"`
	*Position
	RowNumber *int `json:"row_number,omitempty"`

	Accepted bool `json:"accepted,omitempty"`
	Rejected bool `json:"rejected,omitempty"`
}

// Span returns the prediction's character range
func (p Prediction) Span() Span {
	return Span{Start: p.Start, End: p.End}
}

// LabelConfidence returns the confidence recorded for the prediction's own label
func (p Prediction) LabelConfidence() (float64, bool) {
	c, ok := p.Confidence[p.Label]
	return c, ok
}

// Clone returns a deep copy; pointer and map fields are not shared
func (p Prediction) Clone() Prediction {
	out := p
	if p.Confidence != nil {
		out.Confidence = make(map[string]float64, len(p.Confidence))
		for k, v := range p.Confidence {
			out.Confidence[k] = v
		}
	}
	if p.PageNum != nil {
		n := *p.PageNum
		out.PageNum = &n
	}
	if p.Position != nil {
		pos := *p.Position
		out.Position = &pos
	}
	if p.RowNumber != nil {
		n := *p.RowNumber
		out.RowNumber = &n
	}
	return out
}

// ClonePredictions deep-copies a prediction list
func ClonePredictions(preds []Prediction) []Prediction {
	if preds == nil {
		return nil
	}
	out := make([]Prediction, len(preds))
	for i, p := range preds {
		out[i] = p.Clone()
	}
	return out
}
