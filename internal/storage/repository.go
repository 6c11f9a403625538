package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"chitfund/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists member profiles and recorded payment cells.
// Cells that were never recorded are not stored; the ledger fills them in.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements a readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LoadMembers implements ports.LedgerReader
func (r *SQLiteRepository) LoadMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.queries.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]core.Member, len(rows))
	for i, m := range rows {
		members[i] = core.Member{
			ID:      int(m.ID),
			Name:    m.Name,
			Phone:   m.Phone,
			Address: m.Address,
		}
	}
	return members, nil
}

// LoadPayments implements ports.LedgerReader
func (r *SQLiteRepository) LoadPayments(ctx context.Context) ([]core.PaymentRecord, error) {
	rows, err := r.queries.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	payments := make([]core.PaymentRecord, 0, len(rows))
	for _, p := range rows {
		status, err := core.ParseStatus(p.Status)
		if err != nil {
			return nil, fmt.Errorf("payment (%d,%d): %w", p.Month, p.MemberID, err)
		}
		date, err := core.ParseDate(p.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("payment (%d,%d): %w", p.Month, p.MemberID, err)
		}
		payments = append(payments, core.PaymentRecord{
			Month:       int(p.Month),
			MemberID:    int(p.MemberID),
			Status:      status,
			Amount:      p.Amount,
			PaymentDate: date,
		})
	}
	return payments, nil
}

// SavePayment implements ports.LedgerWriter
func (r *SQLiteRepository) SavePayment(ctx context.Context, rec core.PaymentRecord) error {
	version, err := r.queries.UpsertPayment(ctx, Payment{
		Month:       int64(rec.Month),
		MemberID:    int64(rec.MemberID),
		Status:      rec.Status.String(),
		Amount:      rec.Amount,
		PaymentDate: rec.PaymentDate.String(),
	})
	if err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}

	slog.DebugContext(ctx, "Payment saved to SQLite",
		"month", rec.Month,
		"member_id", rec.MemberID,
		"status", rec.Status,
		"amount", rec.Amount,
		"version", version)
	return nil
}

// SaveMember implements ports.LedgerWriter
func (r *SQLiteRepository) SaveMember(ctx context.Context, m core.Member) error {
	err := r.queries.UpsertMember(ctx, Member{
		ID:      int64(m.ID),
		Name:    m.Name,
		Phone:   m.Phone,
		Address: m.Address,
	})
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}

	slog.DebugContext(ctx, "Member saved to SQLite", "member_id", m.ID)
	return nil
}

// PaymentVersion returns how many times a cell has been written, 0 if never.
func (r *SQLiteRepository) PaymentVersion(ctx context.Context, month, memberID int) (int64, error) {
	p, err := r.queries.GetPayment(ctx, int64(month), int64(memberID))
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get payment: %w", err)
	}
	return p.Version, nil
}
