package memory

import (
	"context"
	"sort"
	"sync"

	"chitfund/internal/core"
)

type cellKey struct {
	month, member int
}

// Store keeps persisted ledger state in process memory. It is the default
// backend and the one tests use in place of SQLite.
type Store struct {
	mu       sync.Mutex
	members  map[int]core.Member
	payments map[cellKey]core.PaymentRecord
}

func New() *Store {
	return &Store{
		members:  make(map[int]core.Member),
		payments: make(map[cellKey]core.PaymentRecord),
	}
}

// LoadMembers returns saved profiles ordered by id.
func (s *Store) LoadMembers(_ context.Context) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadPayments returns saved cells ordered by month then member.
func (s *Store) LoadPayments(_ context.Context) ([]core.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PaymentRecord, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out, nil
}

func (s *Store) SavePayment(_ context.Context, rec core.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[cellKey{rec.Month, rec.MemberID}] = rec
	return nil
}

func (s *Store) SaveMember(_ context.Context, m core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
	return nil
}
