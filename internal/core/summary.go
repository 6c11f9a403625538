package core

import "fmt"

// MemberTotals is a member profile with totals derived from the grid.
type MemberTotals struct {
	Member
	TotalPaid   int64
	Expected    int64
	Outstanding int64
}

// MonthSummary aggregates one month across all members.
type MonthSummary struct {
	Month    int
	Label    string // "Month 3"
	Total    int64
	Paid     int
	Partial  int
	Unpaid   int
	Expected int64
}

// SeriesPoint is one month of a member's payment history.
type SeriesPoint struct {
	Month      int
	Label      string // "M3"
	Amount     int64
	Cumulative int64
	Expected   int64
}

// Dashboard is the headline view for a selected month.
type Dashboard struct {
	Month            int
	MonthCollection  int64
	MonthExpected    int64
	MonthPending     int64
	CollectionRate   int // percent, rounded
	ActiveMembers    int
	TotalCollected   int64
	TotalOutstanding int64
	TotalFund        int64
}

// ComputeMemberTotals sums each member's amounts over the whole horizon and
// compares them with what is expected by asOfMonth. Payments recorded for
// months after asOfMonth still count towards TotalPaid.
func (l *Ledger) ComputeMemberTotals(asOfMonth int) ([]MemberTotals, error) {
	if err := l.settings.checkMonth(asOfMonth); err != nil {
		return nil, fmt.Errorf("as of: %w", err)
	}

	expected := int64(asOfMonth) * l.settings.MonthlyAmount
	out := make([]MemberTotals, len(l.members))
	for i, m := range l.members {
		var paid int64
		for _, row := range l.records {
			paid += row[i].Amount
		}
		out[i] = MemberTotals{
			Member:      m,
			TotalPaid:   paid,
			Expected:    expected,
			Outstanding: max(0, expected-paid),
		}
	}
	return out, nil
}

// ComputeMonthlySummary returns one summary per month, in month order.
func (l *Ledger) ComputeMonthlySummary() []MonthSummary {
	expected := l.settings.MonthlyExpected()
	out := make([]MonthSummary, len(l.records))
	for m, row := range l.records {
		s := MonthSummary{
			Month:    m + 1,
			Label:    fmt.Sprintf("Month %d", m+1),
			Expected: expected,
		}
		for _, rec := range row {
			s.Total += rec.Amount
			switch rec.Status {
			case StatusPaid:
				s.Paid++
			case StatusPartial:
				s.Partial++
			default:
				s.Unpaid++
			}
		}
		out[m] = s
	}
	return out
}

// ComputeMemberSeries returns the month by month history of one member with a
// running total and the cumulative amount expected by each month.
func (l *Ledger) ComputeMemberSeries(memberID int) ([]SeriesPoint, error) {
	if err := l.settings.checkMember(memberID); err != nil {
		return nil, err
	}

	out := make([]SeriesPoint, len(l.records))
	var cumulative int64
	for m, row := range l.records {
		amount := row[memberID-1].Amount
		cumulative += amount
		out[m] = SeriesPoint{
			Month:      m + 1,
			Label:      fmt.Sprintf("M%d", m+1),
			Amount:     amount,
			Cumulative: cumulative,
			Expected:   int64(m+1) * l.settings.MonthlyAmount,
		}
	}
	return out, nil
}

// Dashboard combines the month summary and member totals for one month.
func (l *Ledger) Dashboard(month int) (Dashboard, error) {
	totals, err := l.ComputeMemberTotals(month)
	if err != nil {
		return Dashboard{}, err
	}
	summary := l.ComputeMonthlySummary()[month-1]

	d := Dashboard{
		Month:           month,
		MonthCollection: summary.Total,
		MonthExpected:   summary.Expected,
		MonthPending:    summary.Expected - summary.Total,
		ActiveMembers:   len(l.members),
		TotalFund:       l.settings.TotalFund(),
	}
	if summary.Expected > 0 {
		d.CollectionRate = int((summary.Total*100 + summary.Expected/2) / summary.Expected)
	}
	for _, t := range totals {
		d.TotalCollected += t.TotalPaid
		d.TotalOutstanding += t.Outstanding
	}
	return d, nil
}

// Snapshot is a self-contained copy of the ledger and its views, suitable for
// handing to exporters outside the owner's lock.
type Snapshot struct {
	Settings  Settings
	AsOfMonth int
	Members   []MemberTotals
	Grid      [][]PaymentRecord
	Monthly   []MonthSummary
}

func (l *Ledger) Snapshot(asOfMonth int) (Snapshot, error) {
	totals, err := l.ComputeMemberTotals(asOfMonth)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Settings:  l.settings,
		AsOfMonth: asOfMonth,
		Members:   totals,
		Grid:      l.Grid(),
		Monthly:   l.ComputeMonthlySummary(),
	}, nil
}
