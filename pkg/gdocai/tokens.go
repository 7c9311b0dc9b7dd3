package gdocai

import (
	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/lineitems/pkg/extract"
)

// TokensFromDocument flattens every page token into an OCR token carrying a
// 0-based page index, its text-anchor span and a pixel box. Tokens without a
// text anchor or geometry are skipped.
func TokensFromDocument(doc *documentaipb.Document) []extract.OCRToken {
	if doc == nil {
		return nil
	}

	var tokens []extract.OCRToken
	for i, page := range doc.Pages {
		pageIdx := pageIndex(page, i)
		for _, tok := range page.Tokens {
			if tok.Layout == nil {
				continue
			}
			span, ok := spanFromAnchor(tok.Layout.TextAnchor)
			if !ok {
				continue
			}
			box, ok := pixelBox(tok.Layout.BoundingPoly, page.Dimension)
			if !ok {
				continue
			}
			tokens = append(tokens, extract.OCRToken{
				PageNum:   pageIdx,
				Position:  box,
				DocOffset: span,
				Text:      textFromLayout(tok.Layout, doc.Text),
			})
		}
	}
	return tokens
}

// PageSizesFromDocument returns each page's pixel dimension, indexed like
// token pages. Pages without a dimension get a zero size.
func PageSizesFromDocument(doc *documentaipb.Document) []extract.PageSize {
	if doc == nil {
		return nil
	}
	var sizes []extract.PageSize
	for i, page := range doc.Pages {
		idx := pageIndex(page, i)
		for len(sizes) <= idx {
			sizes = append(sizes, extract.PageSize{})
		}
		if dim := page.GetDimension(); dim != nil {
			sizes[idx] = extract.PageSize{Width: float64(dim.Width), Height: float64(dim.Height)}
		}
	}
	return sizes
}

// pageIndex converts Document AI's 1-based page number to a 0-based index,
// falling back to the page's position when the number is unset
func pageIndex(page *documentaipb.Document_Page, position int) int {
	if page.PageNumber > 0 {
		return int(page.PageNumber) - 1
	}
	return position
}

// pixelBox returns the axis-aligned box around a bounding polygon. Pixel
// vertices are used when present, otherwise normalized vertices are scaled
// by the page dimension.
func pixelBox(poly *documentaipb.BoundingPoly, dim *documentaipb.Document_Page_Dimension) (extract.Position, bool) {
	if poly == nil {
		return extract.Position{}, false
	}

	var xs, ys []float64
	if len(poly.Vertices) > 0 {
		for _, v := range poly.Vertices {
			xs = append(xs, float64(v.X))
			ys = append(ys, float64(v.Y))
		}
	} else if len(poly.NormalizedVertices) > 0 && dim != nil {
		for _, v := range poly.NormalizedVertices {
			xs = append(xs, float64(v.X)*float64(dim.Width))
			ys = append(ys, float64(v.Y)*float64(dim.Height))
		}
	} else {
		return extract.Position{}, false
	}

	box := extract.Position{BBLeft: xs[0], BBRight: xs[0], BBTop: ys[0], BBBot: ys[0]}
	for i := 1; i < len(xs); i++ {
		box.BBLeft = min(box.BBLeft, xs[i])
		box.BBRight = max(box.BBRight, xs[i])
		box.BBTop = min(box.BBTop, ys[i])
		box.BBBot = max(box.BBBot, ys[i])
	}
	return box, true
}
