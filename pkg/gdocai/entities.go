package gdocai

import (
	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/lineitems/pkg/extract"
)

// PredictionsFromEntities turns extractor entities into predictions.
// Nested properties are emitted after their parent with their own type as the
// label (e.g. "line_item/amount"), so every level of nesting is kept.
// Entities without a text anchor have no offsets and are skipped. Text
// falls back to the anchored document text when no mention text is set.
func PredictionsFromEntities(doc *documentaipb.Document) []extract.Prediction {
	if doc == nil {
		return nil
	}

	var preds []extract.Prediction
	for _, entity := range doc.Entities {
		preds = appendEntity(preds, entity, doc.Text)
	}
	return preds
}

// appendEntity adds entity and, recursively, its properties
func appendEntity(preds []extract.Prediction, entity *documentaipb.Document_Entity, fullText string) []extract.Prediction {
	if entity == nil || entity.Type == "" {
		return preds
	}

	if span, ok := spanFromAnchor(entity.TextAnchor); ok {
		pred := extract.Prediction{
			Label:      entity.Type,
			Start:      span.Start,
			End:        span.End,
			Text:       entity.MentionText,
			Confidence: map[string]float64{entity.Type: float64(entity.Confidence)},
		}
		if pred.Text == "" {
			pred.Text = textFromAnchor(entity.TextAnchor, fullText)
		}
		if page, ok := entityPage(entity); ok {
			pred.PageNum = &page
		}
		preds = append(preds, pred)
	}

	for _, prop := range entity.Properties {
		preds = appendEntity(preds, prop, fullText)
	}
	return preds
}

// entityPage returns the page an entity is anchored to, when it names exactly one
func entityPage(entity *documentaipb.Document_Entity) (int, bool) {
	refs := entity.GetPageAnchor().GetPageRefs()
	if len(refs) == 0 {
		return 0, false
	}
	page := refs[0].Page
	for _, ref := range refs[1:] {
		if ref.Page != page {
			return 0, false
		}
	}
	return int(page), true
}
