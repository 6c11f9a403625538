package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chitfund/internal/core"
	"chitfund/internal/storage/memory"
)

type failingStore struct {
	*memory.Store
	err error
}

func (f *failingStore) SavePayment(ctx context.Context, rec core.PaymentRecord) error {
	return f.err
}

func (f *failingStore) SaveMember(ctx context.Context, m core.Member) error {
	return f.err
}

type recordingPublisher struct {
	mu       sync.Mutex
	payments []core.PaymentRecord
	members  []core.ProfileField
	err      error
}

func (p *recordingPublisher) PublishPaymentRecorded(ctx context.Context, rec core.PaymentRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments = append(p.payments, rec)
	return p.err
}

func (p *recordingPublisher) PublishMemberUpdated(ctx context.Context, m core.Member, field core.ProfileField) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members = append(p.members, field)
	return p.err
}

func newTestService(t *testing.T, store *memory.Store, pub *recordingPublisher) *LedgerService {
	t.Helper()
	var svc *LedgerService
	var err error
	if pub == nil {
		svc, err = NewLedgerService(core.DefaultSettings(), store, nil)
	} else {
		svc, err = NewLedgerService(core.DefaultSettings(), store, pub)
	}
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.SetClock(func() time.Time { return time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC) })
	return svc
}

func TestRecordPaymentPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	svc := newTestService(t, store, pub)

	rec, err := svc.RecordPayment(ctx, 1, 1, core.StatusPaid, 0, core.Date{})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Amount != 6000 || rec.PaymentDate.String() != "2024-04-02" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	stored, _ := store.LoadPayments(ctx)
	if len(stored) != 1 || stored[0] != rec {
		t.Fatalf("store = %+v", stored)
	}
	if len(pub.payments) != 1 || pub.payments[0].MemberID != 1 {
		t.Fatalf("published = %+v", pub.payments)
	}
	if svc.Revision() != 1 {
		t.Fatalf("revision = %d", svc.Revision())
	}
}

func TestRecordPaymentRollsBackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	svc, err := NewLedgerService(core.DefaultSettings(), &failingStore{Store: memory.New(), err: boom}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.RecordPayment(ctx, 2, 4, core.StatusPaid, 0, core.Date{}); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	recs, _ := svc.MonthRecords(2)
	if recs[3].Status != core.StatusUnpaid || recs[3].Amount != 0 || !recs[3].PaymentDate.IsEmpty() {
		t.Fatalf("cell not rolled back: %+v", recs[3])
	}
	if svc.Revision() != 0 {
		t.Fatalf("revision moved on failed write: %d", svc.Revision())
	}

	if _, err := svc.UpdateMemberProfile(ctx, 4, core.FieldName, "Ravi"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	m, _ := svc.Member(4)
	if m.Name != "Member 4" {
		t.Fatalf("member not rolled back: %+v", m)
	}
}

func TestRecordPaymentIgnoresPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, memory.New(), pub)

	if _, err := svc.RecordPayment(context.Background(), 1, 2, core.StatusPartial, 1500, core.Date{}); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
	if _, err := svc.UpdateMemberProfile(context.Background(), 2, core.FieldPhone, "9000000000"); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
	if len(pub.members) != 1 || pub.members[0] != core.FieldPhone {
		t.Fatalf("member events = %+v", pub.members)
	}
}

func TestInvalidArgumentsDoNotTouchStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(t, store, nil)

	if _, err := svc.RecordPayment(ctx, 27, 1, core.StatusPaid, 0, core.Date{}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.UpdateMemberProfile(ctx, 1, core.ProfileField("email"), "x"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	payments, _ := store.LoadPayments(ctx)
	members, _ := store.LoadMembers(ctx)
	if len(payments) != 0 || len(members) != 0 {
		t.Fatalf("store written on invalid input: %v %v", payments, members)
	}
}

func TestHydrateReplaysStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	first := newTestService(t, store, nil)
	first.RecordPayment(ctx, 3, 5, core.StatusPartial, 2500, core.NewDate(2024, 3, 4))
	first.RecordPayment(ctx, 1, 1, core.StatusPaid, 0, core.Date{})
	first.UpdateMemberProfile(ctx, 5, core.FieldAddress, "Edappally")

	// Out of shape rows are skipped.
	store.SavePayment(ctx, core.PaymentRecord{Month: 40, MemberID: 1, Status: core.StatusPaid, Amount: 6000})

	second := newTestService(t, store, nil)
	if err := second.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	series, err := second.MemberSeries(5)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if series[2].Amount != 2500 || series[2].Cumulative != 2500 || series[2].Expected != 18000 {
		t.Fatalf("month 3 point = %+v", series[2])
	}
	m, _ := second.Member(5)
	if m.Address != "Edappally" || m.Name != "Member 5" {
		t.Fatalf("member = %+v", m)
	}
	recs, _ := second.MonthRecords(3)
	if recs[4].PaymentDate.String() != "2024-03-04" {
		t.Fatalf("date not replayed: %+v", recs[4])
	}
	if second.MonthlySummary()[0].Total != 6000 {
		t.Fatalf("month 1 total = %d", second.MonthlySummary()[0].Total)
	}
	if second.Revision() != 1 {
		t.Fatalf("revision = %d", second.Revision())
	}
}

func TestSelection(t *testing.T) {
	svc := newTestService(t, memory.New(), nil)
	if got := svc.Selection(); got.Month != 1 || got.MemberID != 0 {
		t.Fatalf("initial selection = %+v", got)
	}
	if err := svc.SelectMonth(12); err != nil {
		t.Fatalf("select month: %v", err)
	}
	if err := svc.SelectMember(7); err != nil {
		t.Fatalf("select member: %v", err)
	}
	if got := svc.Selection(); got.Month != 12 || got.MemberID != 7 {
		t.Fatalf("selection = %+v", got)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"month zero", func() error { return svc.SelectMonth(0) }},
		{"month past horizon", func() error { return svc.SelectMonth(27) }},
		{"member past roster", func() error { return svc.SelectMember(26) }},
		{"negative member", func() error { return svc.SelectMember(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, core.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
	if got := svc.Selection(); got.Month != 12 || got.MemberID != 7 {
		t.Fatalf("rejected selection changed state: %+v", got)
	}
	if err := svc.SelectMember(0); err != nil || svc.Selection().MemberID != 0 {
		t.Fatalf("clearing member failed: %v", err)
	}
}

func TestConcurrentWritesAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.New(), nil)

	var wg sync.WaitGroup
	for id := 1; id <= 25; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := svc.RecordPayment(ctx, 6, id, core.StatusPaid, 0, core.Date{}); err != nil {
				t.Errorf("member %d: %v", id, err)
			}
			svc.MonthlySummary()
		}(id)
	}
	wg.Wait()

	s := svc.MonthlySummary()[5]
	if s.Total != 150000 || s.Paid != 25 {
		t.Fatalf("month 6 = %+v", s)
	}
	if svc.Revision() != 25 {
		t.Fatalf("revision = %d", svc.Revision())
	}
}

func TestNewLedgerServiceRequiresStore(t *testing.T) {
	if _, err := NewLedgerService(core.DefaultSettings(), nil, nil); err == nil {
		t.Fatal("expected error for nil store")
	}
	bad := core.DefaultSettings()
	bad.NumMembers = 0
	if _, err := NewLedgerService(bad, memory.New(), nil); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestUpdateMemberProfileNormalizesField(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	svc := newTestService(t, store, pub)

	m, err := svc.UpdateMemberProfile(ctx, 2, core.ProfileField("Name"), "Asha")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.Name != "Asha" {
		t.Fatalf("name = %q", m.Name)
	}
	stored, _ := store.LoadMembers(ctx)
	if len(stored) != 1 || stored[0].Name != "Asha" {
		t.Fatalf("stored members = %+v", stored)
	}
	if len(pub.members) != 1 || pub.members[0] != core.FieldName {
		t.Fatalf("published fields = %v", pub.members)
	}

	if _, err := svc.UpdateMemberProfile(ctx, 2, core.ProfileField("email"), "x"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(pub.members) != 1 {
		t.Fatalf("rejected update was published")
	}
}

func TestHydrateLoadsPaymentsAsStored(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	// Written while partials were unrestricted.
	store.SavePayment(ctx, core.PaymentRecord{Month: 2, MemberID: 3, Status: core.StatusPartial, Amount: 9000, PaymentDate: core.NewDate(2024, 2, 9)})
	store.SavePayment(ctx, core.PaymentRecord{Month: 2, MemberID: 4, Status: core.Status("late"), Amount: 10})
	store.SavePayment(ctx, core.PaymentRecord{Month: 2, MemberID: 5, Status: core.StatusPartial, Amount: -1})

	strict := core.DefaultSettings()
	strict.StrictPartial = true
	svc, err := NewLedgerService(strict, store, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	recs, _ := svc.MonthRecords(2)
	if recs[2].Status != core.StatusPartial || recs[2].Amount != 9000 || recs[2].PaymentDate.String() != "2024-02-09" {
		t.Fatalf("over-ceiling partial not loaded as stored: %+v", recs[2])
	}
	if recs[2].DueDate.String() != "2024-02-01" {
		t.Fatalf("due date = %s", recs[2].DueDate)
	}
	for _, i := range []int{3, 4} {
		if recs[i].Status != core.StatusUnpaid || recs[i].Amount != 0 {
			t.Fatalf("invalid stored row loaded for member %d: %+v", i+1, recs[i])
		}
	}

	// New writes still follow the ceiling.
	if _, err := svc.RecordPayment(ctx, 3, 3, core.StatusPartial, 9000, core.Date{}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

type closingStore struct {
	*memory.Store
	err error
}

func (c *closingStore) Close() error { return c.err }

func TestCloseKeepsWrappedErrors(t *testing.T) {
	errDisk := errors.New("disk gone")
	svc, err := NewLedgerService(core.DefaultSettings(), &closingStore{Store: memory.New(), err: errDisk}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Close(); !errors.Is(err, errDisk) {
		t.Fatalf("close error %v does not wrap the store error", err)
	}

	clean, _ := NewLedgerService(core.DefaultSettings(), &closingStore{Store: memory.New()}, nil)
	if err := clean.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
