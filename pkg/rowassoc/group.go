package rowassoc

import (
	"sort"

	"github.com/gardar/lineitems/pkg/extract"
)

// RowGroup is the set of predictions that share one row number
type RowGroup struct {
	RowNumber   int                  `json:"row_number"`
	Predictions []extract.Prediction `json:"predictions"`
}

// Labels lists the labels in the group in order
func (g RowGroup) Labels() []string {
	labels := make([]string, len(g.Predictions))
	for i, p := range g.Predictions {
		labels[i] = p.Label
	}
	return labels
}

// GroupByRow clusters predictions by RowNumber. Groups are ordered by row
// number and keep the input order inside each group. Predictions without a
// row number are left out. The returned predictions are copies.
func GroupByRow(preds []extract.Prediction) []RowGroup {
	byRow := make(map[int][]extract.Prediction)
	for _, pred := range preds {
		if pred.RowNumber == nil {
			continue
		}
		byRow[*pred.RowNumber] = append(byRow[*pred.RowNumber], pred.Clone())
	}

	rows := make([]int, 0, len(byRow))
	for row := range byRow {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	groups := make([]RowGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, RowGroup{RowNumber: row, Predictions: byRow[row]})
	}
	return groups
}

// Flatten concatenates the groups back into one list in row order
func Flatten(groups []RowGroup) []extract.Prediction {
	var out []extract.Prediction
	for _, g := range groups {
		out = append(out, g.Predictions...)
	}
	return out
}
