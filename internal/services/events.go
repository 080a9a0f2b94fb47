package services

import (
	"context"
	"log/slog"
	"time"

	"bilancio/internal/amqp"
)

// EventPublisher is implemented by *amqp.Client.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// SummaryInvalidator is implemented by *report.Aggregator.
type SummaryInvalidator interface {
	Invalidate(year int, month time.Month)
	InvalidateAll()
}

// notifier fans a ledger change out to the summary cache and the event bus.
// Both are optional. Publishing never fails the caller: the write already
// happened locally.
type notifier struct {
	events EventPublisher
	cache  SummaryInvalidator
}

func (n notifier) monthChanged(ctx context.Context, t amqp.EventType, year int, month time.Month, refID string) {
	if n.cache != nil {
		n.cache.Invalidate(year, month)
	}
	n.publish(ctx, amqp.NewLedgerEvent(t, year, month, refID))
}

// yearsChanged is used for rule changes, which can move any month of every
// year in [from, to]. One whole-year event is published per year.
func (n notifier) yearsChanged(ctx context.Context, t amqp.EventType, from, to int, refID string) {
	if n.cache != nil {
		n.cache.InvalidateAll()
	}
	for year := from; year <= to; year++ {
		n.publish(ctx, amqp.NewLedgerEvent(t, year, 0, refID))
	}
}

func (n notifier) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if n.events == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping ledger event", "type", ev.Type)
		return
	}
	if err := n.events.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", ev.Type,
			"ref_id", ev.RefID,
			"error", err)
	}
}
