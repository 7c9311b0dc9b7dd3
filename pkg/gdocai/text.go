package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/lineitems/pkg/extract"
)

// spanFromAnchor returns the range covering every segment of a text anchor.
// Document AI offsets index into the document text; segments may be
// discontinuous, in which case the gaps are included.
func spanFromAnchor(anchor *documentaipb.Document_TextAnchor) (extract.Span, bool) {
	if anchor == nil || len(anchor.TextSegments) == 0 {
		return extract.Span{}, false
	}

	span := extract.Span{
		Start: int(anchor.TextSegments[0].StartIndex),
		End:   int(anchor.TextSegments[0].EndIndex),
	}
	for _, seg := range anchor.TextSegments[1:] {
		span.Start = min(span.Start, int(seg.StartIndex))
		span.End = max(span.End, int(seg.EndIndex))
	}
	return span, span.Start < span.End
}

// textFromAnchor extracts the anchored text, clamping out-of-range segments
func textFromAnchor(anchor *documentaipb.Document_TextAnchor, fullText string) string {
	if anchor == nil {
		return ""
	}
	runes := []rune(fullText)
	result := strings.Builder{}
	totalRunes := len(runes)

	for _, seg := range anchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > totalRunes {
			end = totalRunes
		}
		if start > end {
			start = end
		}
		result.WriteString(string(runes[start:end]))
	}
	return result.String()
}

// textFromLayout extracts the text of a page element
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil {
		return ""
	}
	return textFromAnchor(layout.TextAnchor, fullText)
}
