// Package core holds the chit fund ledger: a fully populated grid of payment
// records indexed by (month, member) and the pure views derived from it.
//
// A Ledger has a single owner and is not safe for concurrent use. Callers that
// share one across goroutines wrap it in their own lock.
package core

import (
	"fmt"
	"time"
)

// Ledger owns every member profile and payment record of one chit.
type Ledger struct {
	settings Settings
	members  []Member          // index memberID-1
	records  [][]PaymentRecord // index [month-1][memberID-1]
	now      func() time.Time
}

// Initialize builds a ledger with the default calendar and the given shape.
func Initialize(numMembers, numMonths int, monthlyAmount int64) (*Ledger, error) {
	s := DefaultSettings()
	s.NumMembers = numMembers
	s.NumMonths = numMonths
	s.MonthlyAmount = monthlyAmount
	return NewLedger(s)
}

// NewLedger pre-populates every (month, member) cell as unpaid with a zero
// amount and seeds members with placeholder profiles.
func NewLedger(settings Settings) (*Ledger, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	members := make([]Member, settings.NumMembers)
	for i := range members {
		members[i] = placeholderMember(i + 1)
	}

	records := make([][]PaymentRecord, settings.NumMonths)
	for m := range records {
		month := m + 1
		due := settings.DueDate(month)
		row := make([]PaymentRecord, settings.NumMembers)
		for i := range row {
			row[i] = PaymentRecord{
				Month:    month,
				MemberID: i + 1,
				Status:   StatusUnpaid,
				DueDate:  due,
			}
		}
		records[m] = row
	}

	return &Ledger{
		settings: settings,
		members:  members,
		records:  records,
		now:      time.Now,
	}, nil
}

// SetClock replaces the source of "today" used for default payment dates.
func (l *Ledger) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	l.now = now
}

func (l *Ledger) Settings() Settings {
	return l.settings
}

// RecordPayment sets the status of one cell. Paid forces the full monthly
// amount and unpaid forces zero; partial keeps the supplied amount as is unless
// StrictPartial is set. A zero date means today.
func (l *Ledger) RecordPayment(month, memberID int, status Status, amount int64, date Date) (PaymentRecord, error) {
	if err := l.settings.checkMonth(month); err != nil {
		return PaymentRecord{}, err
	}
	if err := l.settings.checkMember(memberID); err != nil {
		return PaymentRecord{}, err
	}
	if !status.Valid() {
		return PaymentRecord{}, fmt.Errorf("status %q: %w", status, ErrInvalidArgument)
	}

	switch status {
	case StatusPaid:
		amount = l.settings.MonthlyAmount
	case StatusUnpaid:
		amount = 0
	case StatusPartial:
		if amount < 0 {
			return PaymentRecord{}, fmt.Errorf("amount %d is negative: %w", amount, ErrInvalidArgument)
		}
		if l.settings.StrictPartial && amount > l.settings.MonthlyAmount {
			return PaymentRecord{}, fmt.Errorf("amount %d exceeds contribution %d: %w", amount, l.settings.MonthlyAmount, ErrInvalidArgument)
		}
	}

	if date.IsEmpty() {
		date = DateOf(l.now())
	}

	rec := &l.records[month-1][memberID-1]
	rec.Status = status
	rec.Amount = amount
	rec.PaymentDate = date
	return *rec, nil
}

// Restore writes a record back verbatim. It is meant for undoing a mutation
// whose side effects failed, so it checks only the cell key.
func (l *Ledger) Restore(rec PaymentRecord) error {
	if err := l.settings.checkMonth(rec.Month); err != nil {
		return err
	}
	if err := l.settings.checkMember(rec.MemberID); err != nil {
		return err
	}
	rec.DueDate = l.settings.DueDate(rec.Month)
	l.records[rec.Month-1][rec.MemberID-1] = rec
	return nil
}

// UpdateMemberProfile replaces a single profile field. Payment data is untouched.
func (l *Ledger) UpdateMemberProfile(memberID int, field ProfileField, value string) (Member, error) {
	if err := l.settings.checkMember(memberID); err != nil {
		return Member{}, err
	}
	f, err := ParseProfileField(string(field))
	if err != nil {
		return Member{}, err
	}
	m := &l.members[memberID-1]
	m.Set(f, value)
	return *m, nil
}

func (l *Ledger) Member(memberID int) (Member, error) {
	if err := l.settings.checkMember(memberID); err != nil {
		return Member{}, err
	}
	return l.members[memberID-1], nil
}

// Members returns a copy of all profiles in id order.
func (l *Ledger) Members() []Member {
	return append([]Member(nil), l.members...)
}

func (l *Ledger) Record(month, memberID int) (PaymentRecord, error) {
	if err := l.settings.checkMonth(month); err != nil {
		return PaymentRecord{}, err
	}
	if err := l.settings.checkMember(memberID); err != nil {
		return PaymentRecord{}, err
	}
	return l.records[month-1][memberID-1], nil
}

// MonthRecords returns a copy of one month's slice of the grid, in member order.
func (l *Ledger) MonthRecords(month int) ([]PaymentRecord, error) {
	if err := l.settings.checkMonth(month); err != nil {
		return nil, err
	}
	return append([]PaymentRecord(nil), l.records[month-1]...), nil
}

// Grid returns a deep copy of the whole grid indexed [month-1][memberID-1].
func (l *Ledger) Grid() [][]PaymentRecord {
	out := make([][]PaymentRecord, len(l.records))
	for i, row := range l.records {
		out[i] = append([]PaymentRecord(nil), row...)
	}
	return out
}
