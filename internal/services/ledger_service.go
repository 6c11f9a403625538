package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chitfund/internal/core"
	"chitfund/internal/ports"
)

// Selection is the session state of an interactive user: the month being
// worked on and an optionally selected member (0 when none).
type Selection struct {
	Month    int
	MemberID int
}

// LedgerService owns a core.Ledger and serializes every access to it. Writes
// go to the ledger first, then the store, then the event publisher.
type LedgerService struct {
	mu        sync.RWMutex
	ledger    *core.Ledger
	settings  core.Settings
	store     ports.LedgerStore
	publisher ports.EventPublisher
	now       func() time.Time
	revision  uint64
	selection Selection
}

// NewLedgerService creates a service around a freshly initialized ledger.
// publisher may be nil, in which case events are skipped.
func NewLedgerService(settings core.Settings, store ports.LedgerStore, publisher ports.EventPublisher) (*LedgerService, error) {
	if store == nil {
		return nil, errors.New("ledger service requires a store")
	}
	ledger, err := core.NewLedger(settings)
	if err != nil {
		return nil, fmt.Errorf("new ledger: %w", err)
	}
	return &LedgerService{
		ledger:    ledger,
		settings:  settings,
		store:     store,
		publisher: publisher,
		now:       time.Now,
		selection: Selection{Month: 1},
	}, nil
}

// SetClock overrides the clock used for default payment dates.
func (s *LedgerService) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	s.now = now
	s.ledger.SetClock(now)
}

func (s *LedgerService) Settings() core.Settings {
	return s.settings
}

// Hydrate rebuilds the ledger from the store. Rows that do not fit the
// configured shape are logged and skipped.
func (s *LedgerService) Hydrate(ctx context.Context) error {
	members, err := s.store.LoadMembers(ctx)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}

	ledger, err := core.NewLedger(s.settings)
	if err != nil {
		return fmt.Errorf("new ledger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ledger.SetClock(s.now)

	var skipped int
	for _, m := range members {
		for _, field := range []core.ProfileField{core.FieldName, core.FieldPhone, core.FieldAddress} {
			if _, err := ledger.UpdateMemberProfile(m.ID, field, m.Get(field)); err != nil {
				slog.WarnContext(ctx, "Skipping stored member", "member_id", m.ID, "error", err)
				skipped++
				break
			}
		}
	}
	// Payments load exactly as stored; policy such as the partial ceiling
	// applies to new writes only.
	for _, p := range payments {
		var err error
		if !p.Status.Valid() || p.Amount < 0 {
			err = fmt.Errorf("stored payment %s/%d: %w", p.Status, p.Amount, core.ErrInvalidArgument)
		} else {
			err = ledger.Restore(p)
		}
		if err != nil {
			slog.WarnContext(ctx, "Skipping stored payment",
				"month", p.Month,
				"member_id", p.MemberID,
				"error", err)
			skipped++
		}
	}

	s.ledger = ledger
	s.revision++

	slog.InfoContext(ctx, "Ledger hydrated",
		"members", len(members),
		"payments", len(payments),
		"skipped", skipped,
		"revision", s.revision)
	return nil
}

// RecordPayment updates one cell, persists it and announces it. If the store
// rejects the write the cell is put back the way it was.
func (s *LedgerService) RecordPayment(ctx context.Context, month, memberID int, status core.Status, amount int64, date core.Date) (core.PaymentRecord, error) {
	s.mu.Lock()
	prev, err := s.ledger.Record(month, memberID)
	if err != nil {
		s.mu.Unlock()
		return core.PaymentRecord{}, err
	}
	rec, err := s.ledger.RecordPayment(month, memberID, status, amount, date)
	if err != nil {
		s.mu.Unlock()
		return core.PaymentRecord{}, err
	}
	if err := s.store.SavePayment(ctx, rec); err != nil {
		if rerr := s.ledger.Restore(prev); rerr != nil {
			slog.ErrorContext(ctx, "Failed to roll back payment", "month", month, "member_id", memberID, "error", rerr)
		}
		s.mu.Unlock()
		return core.PaymentRecord{}, fmt.Errorf("save payment: %w", err)
	}
	s.revision++
	s.mu.Unlock()

	slog.DebugContext(ctx, "Payment stored",
		"month", rec.Month,
		"member_id", rec.MemberID,
		"status", rec.Status,
		"amount", rec.Amount)

	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping payment event")
		return rec, nil
	}
	if err := s.publisher.PublishPaymentRecorded(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to publish payment event",
			"month", rec.Month,
			"member_id", rec.MemberID,
			"error", err)
	}
	return rec, nil
}

// UpdateMemberProfile changes one profile field and persists the member.
func (s *LedgerService) UpdateMemberProfile(ctx context.Context, memberID int, field core.ProfileField, value string) (core.Member, error) {
	field, err := core.ParseProfileField(string(field))
	if err != nil {
		return core.Member{}, err
	}

	s.mu.Lock()
	prev, err := s.ledger.Member(memberID)
	if err != nil {
		s.mu.Unlock()
		return core.Member{}, err
	}
	m, err := s.ledger.UpdateMemberProfile(memberID, field, value)
	if err != nil {
		s.mu.Unlock()
		return core.Member{}, err
	}
	if err := s.store.SaveMember(ctx, m); err != nil {
		if _, rerr := s.ledger.UpdateMemberProfile(memberID, field, prev.Get(field)); rerr != nil {
			slog.ErrorContext(ctx, "Failed to roll back member", "member_id", memberID, "error", rerr)
		}
		s.mu.Unlock()
		return core.Member{}, fmt.Errorf("save member: %w", err)
	}
	s.revision++
	s.mu.Unlock()

	slog.InfoContext(ctx, "Member profile updated", "member_id", memberID, "profile_field", field)

	if s.publisher == nil {
		return m, nil
	}
	if err := s.publisher.PublishMemberUpdated(ctx, m, field); err != nil {
		slog.ErrorContext(ctx, "Failed to publish member event", "member_id", memberID, "error", err)
	}
	return m, nil
}

// SelectMonth sets the session month.
func (s *LedgerService) SelectMonth(month int) error {
	if month < 1 || month > s.settings.NumMonths {
		return fmt.Errorf("month %d outside 1..%d: %w", month, s.settings.NumMonths, core.ErrInvalidArgument)
	}
	s.mu.Lock()
	s.selection.Month = month
	s.mu.Unlock()
	return nil
}

// SelectMember sets the session member; 0 clears the selection.
func (s *LedgerService) SelectMember(memberID int) error {
	if memberID < 0 || memberID > s.settings.NumMembers {
		return fmt.Errorf("member %d outside 1..%d: %w", memberID, s.settings.NumMembers, core.ErrInvalidArgument)
	}
	s.mu.Lock()
	s.selection.MemberID = memberID
	s.mu.Unlock()
	return nil
}

func (s *LedgerService) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// Revision increases on every successful mutation and hydration.
func (s *LedgerService) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *LedgerService) Members(asOfMonth int) ([]core.MemberTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.ComputeMemberTotals(asOfMonth)
}

func (s *LedgerService) Member(memberID int) (core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Member(memberID)
}

func (s *LedgerService) MonthRecords(month int) ([]core.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.MonthRecords(month)
}

func (s *LedgerService) Grid() [][]core.PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Grid()
}

func (s *LedgerService) MonthlySummary() []core.MonthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.ComputeMonthlySummary()
}

func (s *LedgerService) MemberSeries(memberID int) ([]core.SeriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.ComputeMemberSeries(memberID)
}

func (s *LedgerService) Dashboard(month int) (core.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Dashboard(month)
}

func (s *LedgerService) Snapshot(asOfMonth int) (core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Snapshot(asOfMonth)
}

// Close releases the store and publisher if they hold resources.
func (s *LedgerService) Close() error {
	var errs []error

	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
