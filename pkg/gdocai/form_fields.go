package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/lineitems/pkg/extract"
)

// PredictionsFromFormFields turns key/value form fields into predictions:
// the trimmed key (without a trailing colon) is the label and the value's
// anchor gives the offsets. Fields with an empty key or no value are skipped.
func PredictionsFromFormFields(doc *documentaipb.Document) []extract.Prediction {
	if doc == nil {
		return nil
	}

	var preds []extract.Prediction
	for i, page := range doc.Pages {
		pageIdx := pageIndex(page, i)
		for _, field := range page.FormFields {
			key := strings.TrimSpace(textFromLayout(field.FieldName, doc.Text))
			key = strings.TrimSuffix(key, ":")
			if key == "" || field.FieldValue == nil {
				continue
			}

			span, ok := spanFromAnchor(field.FieldValue.TextAnchor)
			if !ok {
				continue
			}

			page := pageIdx
			preds = append(preds, extract.Prediction{
				Label:      key,
				Start:      span.Start,
				End:        span.End,
				Text:       strings.TrimSpace(textFromLayout(field.FieldValue, doc.Text)),
				Confidence: map[string]float64{key: float64(field.FieldValue.Confidence)},
				PageNum:    &page,
			})
		}
	}
	return preds
}
