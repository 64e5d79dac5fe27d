package worker

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

const (
	seenCacheSize = 4096
	seenCacheTTL  = 24 * time.Hour
)

// EventExporter appends every consumed ledger event to the journal sheet.
// Redelivered messages that were already written are skipped.
type EventExporter struct {
	writer sheets.EventWriter
	seen   *cache.LRUCache[string]
	logger *log.Logger
}

func NewEventExporter(writer sheets.EventWriter, logger *log.Logger) *EventExporter {
	if logger == nil {
		logger = log.Discard()
	}
	return &EventExporter{
		writer: writer,
		seen:   cache.NewLRUCache[string](seenCacheSize, seenCacheTTL),
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Seen exposes the dedupe cache so the caller can register it for cleanup.
func (w *EventExporter) Seen() *cache.LRUCache[string] {
	return w.seen
}

// HandleMessage is an amqp.Handler.
func (w *EventExporter) HandleMessage(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	key := dedupeKey(msg)
	if ref, ok := w.seen.Get(key); ok {
		w.logger.InfoContext(ctx, "Event already exported, skipping",
			log.FieldEventKind, msg.Kind,
			log.FieldExpenseID, msg.ExpenseID,
			"row_ref", ref)
		return nil
	}

	ev, err := msg.ToEvent()
	if err != nil {
		// Malformed payloads are acked and dropped.
		w.logger.ErrorContext(ctx, "Dropping malformed event",
			log.FieldEventKind, msg.Kind,
			log.FieldError, err.Error())
		return nil
	}

	ref, err := w.writer.AppendEvent(ctx, ev)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	w.seen.Set(key, ref)

	w.logger.InfoContext(ctx, "Exported ledger event",
		log.FieldEventKind, msg.Kind,
		log.FieldExpenseID, msg.ExpenseID,
		log.FieldAmount, msg.Amount,
		"row_ref", ref)
	return nil
}

func dedupeKey(msg *amqp.LedgerEventMessage) string {
	return fmt.Sprintf("%s|%d|%s|%s|%d", msg.Kind, msg.ExpenseID, msg.Category, msg.Amount, msg.Timestamp.UnixNano())
}
