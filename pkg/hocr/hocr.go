// Package hocr reads hOCR, the HTML-based format OCR engines such as
// Tesseract emit, as a token source for row association.
//
// hOCR carries word boxes but no character offsets, so the package builds
// a plain text rendition of the document and indexes every word into it:
//
// - Words on a line are joined by a single space
// - Lines end with a newline
// - Pages are separated by an empty line
//
// Predictions made against that text (for example by a model run over
// Document.Text) can then be matched to word boxes by offset. Offsets count
// characters, not bytes.
//
// Main Functions:
//
// - Parse: Parses hOCR HTML into pages, lines and words
// - ParseTokens: Parses hOCR and builds the text and OCR tokens
// - ParseTitle: Splits an hOCR title attribute into its properties
package hocr
