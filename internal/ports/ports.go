package ports

import (
	"context"

	"chitfund/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerReader loads what has been persisted so a fresh ledger can be replayed.
	LedgerReader interface {
		LoadMembers(ctx context.Context) ([]core.Member, error)
		// LoadPayments returns only the cells that were ever recorded.
		LoadPayments(ctx context.Context) ([]core.PaymentRecord, error)
	}

	LedgerWriter interface {
		SavePayment(ctx context.Context, rec core.PaymentRecord) error
		SaveMember(ctx context.Context, m core.Member) error
	}

	LedgerStore interface {
		LedgerReader
		LedgerWriter
	}

	// EventPublisher announces ledger mutations to other processes.
	EventPublisher interface {
		PublishPaymentRecorded(ctx context.Context, rec core.PaymentRecord) error
		PublishMemberUpdated(ctx context.Context, m core.Member, field core.ProfileField) error
	}

	// SnapshotExporter pushes a full ledger snapshot to an external sheet.
	SnapshotExporter interface {
		Export(ctx context.Context, snap core.Snapshot) error
	}
)
