package worker

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"chitfund/internal/amqp"
	"chitfund/internal/core"
	"chitfund/internal/ports"
	"chitfund/internal/services"
)

// EventSource delivers ledger events until ctx is cancelled.
type EventSource interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// ExportWorker keeps an external sheet in step with the persisted ledger.
// Every interval it replays the store and rewrites the sheet when the
// snapshot changed. Events force the next export.
type ExportWorker struct {
	settings core.Settings
	store    ports.LedgerStore
	exporter ports.SnapshotExporter
	interval time.Duration
	now      func() time.Time

	dirty    atomic.Bool
	mu       sync.Mutex // serializes exports
	exported int64
	last     *core.Snapshot
}

func NewExportWorker(settings core.Settings, store ports.LedgerStore, exporter ports.SnapshotExporter, interval time.Duration) *ExportWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	w := &ExportWorker{
		settings: settings,
		store:    store,
		exporter: exporter,
		interval: interval,
		now:      time.Now,
	}
	// First tick always exports so a restarted worker catches up.
	w.dirty.Store(true)
	return w
}

// HandleEvent is the AMQP handler. It never fails, so events are always acked.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.DebugContext(ctx, "Ledger event received",
		"type", event.Type,
		"month", event.Month,
		"member_id", event.MemberID)
	w.dirty.Store(true)
	return nil
}

// Dirty reports whether an export is pending.
func (w *ExportWorker) Dirty() bool {
	return w.dirty.Load()
}

// Exported returns how many exports have completed.
func (w *ExportWorker) Exported() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exported
}

// Run consumes events from source (if any) and checks for changes on every
// interval until ctx is cancelled or the consumer fails. A nil source is fine.
func (w *ExportWorker) Run(ctx context.Context, source EventSource) error {
	g, ctx := errgroup.WithContext(ctx)

	if source != nil {
		g.Go(func() error {
			return source.Consume(ctx, w.HandleEvent)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.exportIfChanged(ctx)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				w.exportIfChanged(ctx)
			}
		}
	})

	slog.InfoContext(ctx, "Export worker started", "interval", w.interval, "consuming", source != nil)
	return g.Wait()
}

// exportIfChanged exports when an event asked for it or when the store no
// longer matches the last exported snapshot. Writes that never published an
// event (chitctl, or AMQP down) are picked up this way.
func (w *ExportWorker) exportIfChanged(ctx context.Context) {
	force := w.dirty.Swap(false)
	if err := w.export(ctx, force); err != nil {
		w.dirty.Store(true)
		slog.ErrorContext(ctx, "Export failed, will retry", "error", err)
	}
}

// ExportNow replays the store and pushes a snapshot as of the current
// calendar month.
func (w *ExportWorker) ExportNow(ctx context.Context) error {
	return w.export(ctx, true)
}

func (w *ExportWorker) export(ctx context.Context, force bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	svc, err := services.NewLedgerService(w.settings, w.store, nil)
	if err != nil {
		return fmt.Errorf("new ledger service: %w", err)
	}
	if err := svc.Hydrate(ctx); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	asOf := w.settings.MonthAt(w.now())
	snap, err := svc.Snapshot(asOf)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if !force && w.last != nil && reflect.DeepEqual(*w.last, snap) {
		return nil
	}
	if err := w.exporter.Export(ctx, snap); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	w.last = &snap
	w.exported++
	slog.InfoContext(ctx, "Ledger snapshot exported", "as_of_month", asOf, "exports", w.exported)
	return nil
}
