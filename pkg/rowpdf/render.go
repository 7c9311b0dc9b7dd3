// Package rowpdf draws row association results as a PDF, one page per
// document page, so row assignment can be checked by eye.
//
// Token boxes are drawn in gray and every line-item prediction is outlined
// in its row's color with the row number and label above it. Coordinates
// are taken as-is from the OCR pixel space, one pixel per point.
package rowpdf

import (
	"bytes"
	"errors"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/lineitems/pkg/extract"
)

// ErrNothingToDraw is returned when neither tokens nor boxed predictions are given
var ErrNothingToDraw = errors.New("no tokens or positioned predictions to draw")

// A4 in points, used for pages nothing was found on
const (
	emptyPageWidth  = 595.28
	emptyPageHeight = 841.89
)

// pageSize is the drawing extent of one page
type pageSize struct {
	Wd, Ht float64
}

// Render draws tokens and row-numbered predictions and returns the PDF
func Render(preds []extract.Prediction, tokens []extract.OCRToken, cfg Config) ([]byte, error) {
	sizes := pageSizes(preds, tokens, cfg.PageSizes, cfg.Margin)
	if len(sizes) == 0 {
		return nil, ErrNothingToDraw
	}
	if cfg.Font.Name == "" {
		cfg.Font = DefaultFont
	}

	tokensByPage := make([][]extract.OCRToken, len(sizes))
	for _, tok := range tokens {
		if tok.PageNum >= 0 {
			tokensByPage[tok.PageNum] = append(tokensByPage[tok.PageNum], tok)
		}
	}
	predsByPage := make([][]extract.Prediction, len(sizes))
	for _, p := range preds {
		if p.Position != nil && p.PageNum != nil && *p.PageNum >= 0 {
			predsByPage[*p.PageNum] = append(predsByPage[*p.PageNum], p)
		}
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Line item rows", false)

	var bg *background
	if len(cfg.Background) > 0 {
		bg = newBackground(cfg.Background)
	}

	encodingErrors := 0
	for i, size := range sizes {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Wd, Ht: size.Ht})
		if bg != nil {
			if err := bg.draw(pdf, i+1, size.Wd); err != nil {
				return nil, err
			}
		}

		layer := pdf.AddLayer(fmt.Sprintf("%s (Page %d)", cfg.LayerName, i+1), true)
		pdf.BeginLayer(layer)
		if cfg.ShowTokens {
			drawTokens(pdf, tokensByPage[i])
		}
		encodingErrors += drawRows(pdf, predsByPage[i], cfg)
		pdf.EndLayer()
	}

	if encodingErrors > 0 {
		cfg.logger().Warn("Labels not representable in Latin-1 were reduced to row numbers", "count", encodingErrors)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// pageSizes returns one extent per page index up to the highest page seen.
// Known sizes win over box extents; pages with neither get an A4 extent.
func pageSizes(preds []extract.Prediction, tokens []extract.OCRToken, known []extract.PageSize, margin float64) []pageSize {
	var sizes []pageSize
	grow := func(page int, box extract.Position) {
		if page < 0 {
			return
		}
		for len(sizes) <= page {
			sizes = append(sizes, pageSize{})
		}
		sizes[page].Wd = max(sizes[page].Wd, box.BBRight+margin)
		sizes[page].Ht = max(sizes[page].Ht, box.BBBot+margin)
	}

	for _, tok := range tokens {
		grow(tok.PageNum, tok.Position)
	}
	for _, p := range preds {
		if p.Position != nil && p.PageNum != nil {
			grow(*p.PageNum, *p.Position)
		}
	}
	if len(sizes) == 0 {
		return nil
	}
	for len(sizes) < len(known) {
		sizes = append(sizes, pageSize{})
	}

	for i := range sizes {
		if i < len(known) && known[i].Width > 0 && known[i].Height > 0 {
			sizes[i] = pageSize{Wd: known[i].Width, Ht: known[i].Height}
			continue
		}
		if sizes[i].Wd <= margin || sizes[i].Ht <= margin {
			sizes[i] = pageSize{Wd: emptyPageWidth, Ht: emptyPageHeight}
		}
	}
	return sizes
}

func drawTokens(pdf *fpdf.Fpdf, tokens []extract.OCRToken) {
	pdf.SetDrawColor(190, 190, 190)
	pdf.SetLineWidth(0.5)
	for _, tok := range tokens {
		pdf.Rect(tok.Position.BBLeft, tok.Position.BBTop, tok.Position.Width(), tok.Position.Height(), "D")
	}
}

// drawRows outlines every row-numbered prediction and returns the number of
// labels that could not be encoded
func drawRows(pdf *fpdf.Fpdf, preds []extract.Prediction, cfg Config) int {
	encodingErrors := 0
	pdf.SetLineWidth(cfg.LineWidth)
	pdf.SetFont(cfg.Font.Name, cfg.Font.Style, cfg.Font.Size)

	for _, p := range preds {
		if p.RowNumber == nil {
			continue
		}
		c := cfg.color(*p.RowNumber)
		pdf.SetDrawColor(c.R, c.G, c.B)
		pdf.SetTextColor(c.R, c.G, c.B)
		pdf.Rect(p.BBLeft, p.BBTop, p.Width(), p.Height(), "D")

		// Core fonts only cover Latin-1
		label, err := charmap.ISO8859_1.NewEncoder().String(fmt.Sprintf("%d %s", *p.RowNumber, p.Label))
		if err != nil {
			encodingErrors++
			label = fmt.Sprintf("%d", *p.RowNumber)
		}
		pdf.Text(p.BBLeft, max(p.BBTop-2, cfg.Font.Size), label)
	}
	return encodingErrors
}
