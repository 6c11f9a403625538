package memory

import (
	"context"
	"testing"

	"chitfund/internal/core"
)

func TestStoreUpsertsAndOrders(t *testing.T) {
	ctx := context.Background()
	s := New()

	s.SavePayment(ctx, core.PaymentRecord{Month: 2, MemberID: 1, Status: core.StatusPaid, Amount: 6000})
	s.SavePayment(ctx, core.PaymentRecord{Month: 1, MemberID: 3, Status: core.StatusPartial, Amount: 100})
	s.SavePayment(ctx, core.PaymentRecord{Month: 1, MemberID: 3, Status: core.StatusPartial, Amount: 200})

	payments, err := s.LoadPayments(ctx)
	if err != nil {
		t.Fatalf("load payments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected one record per cell, got %d", len(payments))
	}
	if payments[0].Month != 1 || payments[0].Amount != 200 {
		t.Fatalf("unexpected first payment: %+v", payments[0])
	}

	s.SaveMember(ctx, core.Member{ID: 4, Name: "D"})
	s.SaveMember(ctx, core.Member{ID: 2, Name: "B"})
	members, _ := s.LoadMembers(ctx)
	if len(members) != 2 || members[0].ID != 2 || members[1].ID != 4 {
		t.Fatalf("unexpected members: %+v", members)
	}
}
