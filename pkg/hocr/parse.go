package hocr

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoPages is returned for input without any ocr_page element
var ErrNoPages = errors.New("no ocr_page elements found in hOCR data")

// lineClasses are the hOCR classes Tesseract uses for line-level elements
var lineClasses = []string{"ocr_line", "ocr_caption", "ocr_header", "ocr_textfloat"}

// Parse converts raw hOCR data into pages of lines and words. Areas,
// paragraphs and other block structure are flattened away; words found
// outside any line are grouped into a line of their own.
func Parse(data []byte) ([]Page, error) {
	decoded, err := decode(data)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	var pages []Page
	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if hasClass(n, "ocr_page") {
			pages = append(pages, parsePage(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(root)

	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	return pages, nil
}

func parsePage(n *html.Node) Page {
	page := Page{ID: attrVal(n, "id"), Number: -1}

	props := ParseTitle(attrVal(n, "title"))
	page.BBox, _ = parseBBox(props)
	if image := props["image"]; len(image) > 0 {
		page.ImageName = strings.Trim(strings.Join(image, " "), `"`)
	}
	if ppageno := props["ppageno"]; len(ppageno) > 0 {
		if num, err := strconv.Atoi(ppageno[0]); err == nil {
			page.Number = num
		}
	}

	var loose []Word
	flush := func() {
		if len(loose) == 0 {
			return
		}
		page.Lines = append(page.Lines, Line{BBox: wordsBBox(loose), Words: loose})
		loose = nil
	}

	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch {
		case hasClass(c, lineClasses...):
			flush()
			if line := parseLine(c); len(line.Words) > 0 {
				page.Lines = append(page.Lines, line)
			}
			return
		case hasClass(c, "ocrx_word"):
			if w, ok := parseWord(c); ok {
				loose = append(loose, w)
			}
			return
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	flush()

	return page
}

func parseLine(n *html.Node) Line {
	line := Line{ID: attrVal(n, "id")}
	line.BBox, _ = parseBBox(ParseTitle(attrVal(n, "title")))

	var findWords func(*html.Node)
	findWords = func(c *html.Node) {
		if hasClass(c, "ocrx_word") {
			if w, ok := parseWord(c); ok {
				line.Words = append(line.Words, w)
			}
			return
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			findWords(child)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findWords(c)
	}
	return line
}

// parseWord reads a word element. Words without text or a box carry
// nothing to match against and are dropped.
func parseWord(n *html.Node) (Word, bool) {
	props := ParseTitle(attrVal(n, "title"))
	bbox, ok := parseBBox(props)
	if !ok {
		return Word{}, false
	}

	word := Word{ID: attrVal(n, "id"), BBox: bbox, Text: textContent(n)}
	if word.Text == "" {
		return Word{}, false
	}
	if conf := props["x_wconf"]; len(conf) > 0 {
		word.Confidence, _ = strconv.ParseFloat(conf[0], 64)
	}
	return word, true
}

func wordsBBox(words []Word) BoundingBox {
	box := words[0].BBox
	for _, w := range words[1:] {
		box.X1 = min(box.X1, w.BBox.X1)
		box.Y1 = min(box.Y1, w.BBox.Y1)
		box.X2 = max(box.X2, w.BBox.X2)
		box.Y2 = max(box.Y2, w.BBox.Y2)
	}
	return box
}
