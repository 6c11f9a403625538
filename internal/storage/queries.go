package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Member struct {
	ID      int64
	Name    string
	Phone   string
	Address string
}

type Payment struct {
	Month       int64
	MemberID    int64
	Status      string
	Amount      int64
	PaymentDate string
	Version     int64
}

const upsertMember = `
INSERT INTO members (id, name, phone, address, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    phone = excluded.phone,
    address = excluded.address,
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertMember(ctx context.Context, m Member) error {
	_, err := q.db.ExecContext(ctx, upsertMember, m.ID, m.Name, m.Phone, m.Address)
	return err
}

const upsertPayment = `
INSERT INTO payments (month, member_id, status, amount, payment_date, version, updated_at)
VALUES (?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT (month, member_id) DO UPDATE SET
    status = excluded.status,
    amount = excluded.amount,
    payment_date = excluded.payment_date,
    version = payments.version + 1,
    updated_at = CURRENT_TIMESTAMP
RETURNING version`

func (q *Queries) UpsertPayment(ctx context.Context, p Payment) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertPayment, p.Month, p.MemberID, p.Status, p.Amount, p.PaymentDate)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const listMembers = `SELECT id, name, phone, address FROM members ORDER BY id`

func (q *Queries) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx, listMembers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Member
	for rows.Next() {
		var i Member
		if err := rows.Scan(&i.ID, &i.Name, &i.Phone, &i.Address); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPayments = `
SELECT month, member_id, status, amount, payment_date, version
FROM payments
ORDER BY month, member_id`

func (q *Queries) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := q.db.QueryContext(ctx, listPayments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		var i Payment
		if err := rows.Scan(&i.Month, &i.MemberID, &i.Status, &i.Amount, &i.PaymentDate, &i.Version); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPayment = `
SELECT month, member_id, status, amount, payment_date, version
FROM payments
WHERE month = ? AND member_id = ?`

func (q *Queries) GetPayment(ctx context.Context, month, memberID int64) (Payment, error) {
	row := q.db.QueryRowContext(ctx, getPayment, month, memberID)
	var i Payment
	err := row.Scan(&i.Month, &i.MemberID, &i.Status, &i.Amount, &i.PaymentDate, &i.Version)
	return i, err
}
