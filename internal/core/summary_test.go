package core

import (
	"errors"
	"testing"
)

func TestMonthlySummaryAfterSinglePayment(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.RecordPayment(1, 1, StatusPaid, 0, Date{}); err != nil {
		t.Fatalf("record: %v", err)
	}

	summary := l.ComputeMonthlySummary()
	if len(summary) != 26 {
		t.Fatalf("expected 26 months, got %d", len(summary))
	}
	m1 := summary[0]
	if m1.Month != 1 || m1.Label != "Month 1" {
		t.Fatalf("unexpected first entry: %+v", m1)
	}
	if m1.Total != 6000 || m1.Paid != 1 || m1.Partial != 0 || m1.Unpaid != 24 {
		t.Fatalf("unexpected month 1 summary: %+v", m1)
	}
}

func TestMonthlySummaryAllPaid(t *testing.T) {
	l := newTestLedger(t)
	for id := 1; id <= 25; id++ {
		if _, err := l.RecordPayment(2, id, StatusPaid, 0, Date{}); err != nil {
			t.Fatalf("record member %d: %v", id, err)
		}
	}
	got := l.ComputeMonthlySummary()[1]
	want := MonthSummary{Month: 2, Label: "Month 2", Total: 150000, Paid: 25, Partial: 0, Unpaid: 0, Expected: 150000}
	if got != want {
		t.Fatalf("month 2 = %+v, want %+v", got, want)
	}
}

func TestMonthlySummaryExpectedIsConstant(t *testing.T) {
	l := newTestLedger(t)
	l.RecordPayment(3, 4, StatusPartial, 100, Date{})
	l.RecordPayment(9, 4, StatusPaid, 0, Date{})
	for _, s := range l.ComputeMonthlySummary() {
		if s.Expected != 25*6000 {
			t.Fatalf("month %d expected %d", s.Month, s.Expected)
		}
		if s.Paid+s.Partial+s.Unpaid != 25 {
			t.Fatalf("month %d counts do not cover the roster: %+v", s.Month, s)
		}
	}
}

func TestMemberSeriesPartial(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.RecordPayment(3, 5, StatusPartial, 2500, Date{}); err != nil {
		t.Fatalf("record: %v", err)
	}
	series, err := l.ComputeMemberSeries(5)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 26 {
		t.Fatalf("expected 26 points, got %d", len(series))
	}
	// Expected is month × contribution, so 18000 by month 3.
	got := series[2]
	if got.Month != 3 || got.Label != "M3" || got.Amount != 2500 || got.Cumulative != 2500 || got.Expected != 18000 {
		t.Fatalf("month 3 point = %+v", got)
	}
	if series[25].Cumulative != 2500 || series[25].Expected != 26*6000 {
		t.Fatalf("last point = %+v", series[25])
	}
}

func TestMemberSeriesCumulates(t *testing.T) {
	l := newTestLedger(t)
	l.RecordPayment(1, 2, StatusPaid, 0, Date{})
	l.RecordPayment(2, 2, StatusPartial, 1000, Date{})
	l.RecordPayment(4, 2, StatusPaid, 0, Date{})

	series, _ := l.ComputeMemberSeries(2)
	wantCum := []int64{6000, 7000, 7000, 13000}
	for i, want := range wantCum {
		if series[i].Cumulative != want {
			t.Errorf("month %d cumulative %d, want %d", i+1, series[i].Cumulative, want)
		}
	}
	if _, err := l.ComputeMemberSeries(0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMemberTotalsOutstanding(t *testing.T) {
	l := newTestLedger(t)
	l.RecordPayment(1, 1, StatusPaid, 0, Date{})
	l.RecordPayment(2, 1, StatusPartial, 2000, Date{})
	// Future payment still counts toward the total paid.
	l.RecordPayment(10, 2, StatusPaid, 0, Date{})

	for k := 1; k <= 26; k++ {
		totals, err := l.ComputeMemberTotals(k)
		if err != nil {
			t.Fatalf("totals as of %d: %v", k, err)
		}
		for _, mt := range totals {
			var paid int64
			for month := 1; month <= 26; month++ {
				rec, _ := l.Record(month, mt.ID)
				paid += rec.Amount
			}
			want := max(0, int64(k)*6000-paid)
			if mt.TotalPaid != paid || mt.Outstanding != want || mt.Expected != int64(k)*6000 {
				t.Fatalf("as of %d member %d: %+v (paid %d, outstanding %d)", k, mt.ID, mt, paid, want)
			}
		}
	}

	totals, _ := l.ComputeMemberTotals(1)
	if totals[1].TotalPaid != 6000 || totals[1].Outstanding != 0 {
		t.Fatalf("member 2 as of month 1: %+v", totals[1])
	}
	if totals[0].Name != "Member 1" {
		t.Fatalf("totals lost profile: %+v", totals[0])
	}
}

func TestMemberTotalsRejectsOutOfRange(t *testing.T) {
	l := newTestLedger(t)
	for _, k := range []int{0, 27} {
		if _, err := l.ComputeMemberTotals(k); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("as of %d: expected ErrInvalidArgument, got %v", k, err)
		}
	}
}

func TestDashboard(t *testing.T) {
	l := newTestLedger(t)
	for id := 1; id <= 10; id++ {
		l.RecordPayment(1, id, StatusPaid, 0, Date{})
	}
	l.RecordPayment(1, 11, StatusPartial, 3000, Date{})

	d, err := l.Dashboard(1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.MonthCollection != 63000 || d.MonthExpected != 150000 || d.MonthPending != 87000 {
		t.Fatalf("month figures: %+v", d)
	}
	if d.CollectionRate != 42 {
		t.Fatalf("collection rate = %d, want 42", d.CollectionRate)
	}
	if d.ActiveMembers != 25 || d.TotalFund != 3900000 {
		t.Fatalf("roster figures: %+v", d)
	}
	if d.TotalCollected != 63000 {
		t.Fatalf("total collected = %d", d.TotalCollected)
	}
	// 14 members owe 6000, member 11 owes 3000.
	if d.TotalOutstanding != 14*6000+3000 {
		t.Fatalf("total outstanding = %d", d.TotalOutstanding)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	l := newTestLedger(t)
	l.RecordPayment(1, 1, StatusPaid, 0, Date{})
	snap, err := l.Snapshot(1)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	l.RecordPayment(1, 1, StatusUnpaid, 0, Date{})
	if snap.Grid[0][0].Status != StatusPaid || snap.Monthly[0].Total != 6000 || snap.Members[0].TotalPaid != 6000 {
		t.Fatalf("snapshot changed with ledger: %+v", snap.Grid[0][0])
	}
}
