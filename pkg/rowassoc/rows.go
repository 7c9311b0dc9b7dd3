package rowassoc

import (
	"sort"
)

// AssignRowNumbers stamps a row number on every line-item prediction that
// GetBoundingBoxes placed.
//
// Predictions are taken page by page in ascending page order and, within a
// page, top to bottom (ties keep list order). A prediction joins the current
// row when its top lies above the row band's bottom plus the row tolerance,
// or when it shares the band's top; otherwise it opens a new row. Row numbers
// keep increasing across pages.
func (a *Association) AssignRowNumbers() error {
	if !a.enriched {
		return ErrNotEnriched
	}

	order := make([]int, len(a.placed))
	copy(order, a.placed)

	sort.Slice(order, func(x, y int) bool {
		p, q := a.preds[order[x]], a.preds[order[y]]
		if *p.PageNum != *q.PageNum {
			return *p.PageNum < *q.PageNum
		}
		if p.BBTop != q.BBTop {
			return p.BBTop < q.BBTop
		}
		return order[x] < order[y]
	})

	row := -1
	var page int
	var bandTop, bandBot float64
	for _, i := range order {
		pred := &a.preds[i]
		newRow := row < 0 || *pred.PageNum != page ||
			(pred.BBTop != bandTop && pred.BBTop >= bandBot+a.opts.rowTolerance)

		if newRow {
			row++
			page = *pred.PageNum
			bandTop, bandBot = pred.BBTop, pred.BBBot
		} else {
			bandBot = max(bandBot, pred.BBBot)
		}

		n := row
		pred.RowNumber = &n
	}

	a.log.Debug("Row numbers assigned", "predictions", len(order), "rows", row+1)
	return nil
}
