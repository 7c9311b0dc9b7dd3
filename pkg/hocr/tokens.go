package hocr

import (
	"strings"
	"unicode/utf8"

	"github.com/gardar/lineitems/pkg/extract"
)

// ParseTokens parses hOCR and indexes every word into a synthesized text
func ParseTokens(data []byte) (*Document, error) {
	pages, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return NewDocument(pages), nil
}

// NewDocument lays pages out as text and emits one token per word. Token
// pages are 0-based positions in the input, regardless of 'ppageno'.
func NewDocument(pages []Page) *Document {
	doc := &Document{Pages: pages}

	var b strings.Builder
	offset := 0
	write := func(s string) {
		b.WriteString(s)
		offset += utf8.RuneCountInString(s)
	}

	for pageIdx, page := range pages {
		if pageIdx > 0 {
			write("\n")
		}
		for _, line := range page.Lines {
			for i, w := range line.Words {
				if i > 0 {
					write(" ")
				}
				start := offset
				write(w.Text)
				doc.Tokens = append(doc.Tokens, extract.OCRToken{
					PageNum:   pageIdx,
					Position:  w.BBox.Position(),
					DocOffset: extract.Span{Start: start, End: offset},
					Text:      w.Text,
				})
			}
			write("\n")
		}
	}

	doc.Text = b.String()
	return doc
}
