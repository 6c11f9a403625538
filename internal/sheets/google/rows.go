package google

import (
	"fmt"

	"chitfund/internal/core"
)

// BuildRows lays a snapshot out as a sheet: a member block with one column
// per month followed by the monthly summary block. Amounts are plain numbers
// so sheet formulas keep working.
func BuildRows(snap core.Snapshot) [][]interface{} {
	months := snap.Settings.NumMonths

	header := []interface{}{"ID", "Name", "Phone", "Address"}
	for m := 1; m <= months; m++ {
		header = append(header, fmt.Sprintf("M%d", m))
	}
	header = append(header, "Total Paid", fmt.Sprintf("Expected (M%d)", snap.AsOfMonth), "Outstanding")

	rows := [][]interface{}{header}
	for i, mt := range snap.Members {
		row := []interface{}{mt.ID, mt.Name, mt.Phone, mt.Address}
		for m := 0; m < months; m++ {
			row = append(row, cellValue(snap.Grid[m][i]))
		}
		row = append(row, mt.TotalPaid, mt.Expected, mt.Outstanding)
		rows = append(rows, row)
	}

	rows = append(rows, []interface{}{})
	rows = append(rows, []interface{}{"Month", "Due", "Collected", "Paid", "Partial", "Unpaid", "Expected"})
	for _, s := range snap.Monthly {
		rows = append(rows, []interface{}{
			s.Label,
			snap.Settings.DueDate(s.Month).String(),
			s.Total, s.Paid, s.Partial, s.Unpaid, s.Expected,
		})
	}
	return rows
}

// cellValue renders unpaid cells as empty and partial ones with a marker.
func cellValue(rec core.PaymentRecord) interface{} {
	switch rec.Status {
	case core.StatusPaid:
		return rec.Amount
	case core.StatusPartial:
		return fmt.Sprintf("%d (partial)", rec.Amount)
	default:
		return ""
	}
}
