// Package rowassoc reconstructs table rows from flat extraction output.
//
// Line-item fields (amounts, dates, descriptions of an invoice table and the
// like) come back from an extraction model as a flat list of labeled
// character spans. This package places each of them on the page and groups
// the ones that share a horizontal band into rows.
//
// The work happens in three steps on an Association:
//
//   - GetBoundingBoxes: every line-item prediction is matched against the OCR
//     tokens whose character span intersects its own, and gains the page and
//     the box covering all matched tokens
//   - AssignRowNumbers: per page, predictions are swept top to bottom and a
//     new row starts whenever a box begins below the current row's band
//   - LineItemGroups: predictions are clustered by row number
//
// Row numbers start at 0 and keep counting across pages, so rows on
// different pages never share a number.
//
// Usage:
//
//	assoc, err := rowassoc.NewAssociation([]string{"line_date", "line_value"}, preds)
//	if err != nil {
//		return err
//	}
//	if err := assoc.GetBoundingBoxes(tokens); err != nil {
//		return err
//	}
//	if err := assoc.AssignRowNumbers(); err != nil {
//		return err
//	}
//	groups := assoc.LineItemGroups()
//
// An Association is single use: predictions are enriched in place and a
// second GetBoundingBoxes call is refused. Build a new Association per
// document.
package rowassoc
