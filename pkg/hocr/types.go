package hocr

import "github.com/gardar/lineitems/pkg/extract"

// Document is an hOCR file as a row association token source
type Document struct {
	Text   string             // Synthesized text the token offsets point into
	Tokens []extract.OCRToken // One token per recognized word
	Pages  []Page             // Parsed page structure
}

// PageSizes returns each page's bbox extent, indexed like token pages
func (d *Document) PageSizes() []extract.PageSize {
	sizes := make([]extract.PageSize, len(d.Pages))
	for i, p := range d.Pages {
		sizes[i] = extract.PageSize{Width: p.BBox.X2, Height: p.BBox.Y2}
	}
	return sizes
}

// Page is one page of recognized text
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID        string      // Unique identifier
	Number    int         // Physical page number from 'ppageno', -1 when absent
	ImageName string      // Source image filename
	BBox      BoundingBox // Page coordinates
	Lines     []Line      // Text lines in reading order
}

// Line is a line of text. Tesseract also emits captions, headers and
// floating text as line-level elements; those are lines here too.
type Line struct {
	ID    string      // Unique identifier
	BBox  BoundingBox // Line coordinates
	Words []Word      // Words in this line
}

// Word is a recognized word with bounding box
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string      // Unique identifier
	Text       string      // The actual text content
	BBox       BoundingBox // Word coordinates
	Confidence float64     // Recognition confidence (0-100)
}

// BoundingBox is an hOCR 'bbox' property: x1, y1 is the top-left corner
// and x2, y2 the bottom-right one, in image pixels.
type BoundingBox struct {
	X1 float64 // Left coordinate
	Y1 float64 // Top coordinate
	X2 float64 // Right coordinate
	Y2 float64 // Bottom coordinate
}

// Position converts the box to the row association geometry
func (b BoundingBox) Position() extract.Position {
	return extract.Position{BBTop: b.Y1, BBBot: b.Y2, BBLeft: b.X1, BBRight: b.X2}
}
