// Package audit persists the append-only code snapshot and debug log trails
// off the real-time path.
package audit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexushub/virtuallab/internal/model"
)

const writeTimeout = 5 * time.Second

// Store is the durable side of the audit trail.
type Store interface {
	AppendSnapshot(ctx context.Context, snap *model.CodeSnapshot) error
	AppendDebugLog(ctx context.Context, entry *model.DebugLog) error
}

type entry struct {
	snapshot *model.CodeSnapshot
	debugLog *model.DebugLog
}

// Writer drains audit entries into a Store from a single goroutine.
// Enqueueing never blocks: when the queue is full the entry is dropped.
type Writer struct {
	store Store
	queue chan entry
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewWriter starts a writer with a queue of the given size.
func NewWriter(store Store, size int) *Writer {
	if size <= 0 {
		size = 1
	}
	w := &Writer{
		store: store,
		queue: make(chan entry, size),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// RecordSnapshot queues a code snapshot. It reports whether the entry was accepted.
func (w *Writer) RecordSnapshot(snap model.CodeSnapshot) bool {
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}
	return w.enqueue(entry{snapshot: &snap})
}

// RecordDebugLog queues a debug log entry. It reports whether the entry was accepted.
func (w *Writer) RecordDebugLog(dl model.DebugLog) bool {
	if dl.CapturedAt.IsZero() {
		dl.CapturedAt = time.Now().UTC()
	}
	return w.enqueue(entry{debugLog: &dl})
}

func (w *Writer) enqueue(e entry) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return false
	}

	select {
	case w.queue <- e:
		return true
	default:
		w.dropped.Add(1)
		log.Warn().Str("module", "audit").Int("queue", cap(w.queue)).Msg("audit queue full, entry dropped")
		return false
	}
}

func (w *Writer) run() {
	defer close(w.done)

	for e := range w.queue {
		if err := w.write(e); err != nil {
			w.failed.Add(1)
			log.Error().Str("module", "audit").Err(err).Msg("audit write failed")
			continue
		}
		w.written.Add(1)
	}
}

// write persists one entry. Store errors are wrapped in
// model.ErrPersistenceFailure.
func (w *Writer) write(e entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	switch {
	case e.snapshot != nil:
		if err = w.store.AppendSnapshot(ctx, e.snapshot); err != nil {
			err = fmt.Errorf("%w: code snapshot for session %s: %w", model.ErrPersistenceFailure, e.snapshot.SessionID, err)
		}
	case e.debugLog != nil:
		if err = w.store.AppendDebugLog(ctx, e.debugLog); err != nil {
			err = fmt.Errorf("%w: debug log for session %s: %w", model.ErrPersistenceFailure, e.debugLog.SessionID, err)
		}
	}
	return err
}

// Close stops accepting entries and waits until the queue is drained.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	<-w.done
	log.Info().Str("module", "audit").Int64("written", w.written.Load()).Int64("dropped", w.dropped.Load()).
		Int64("failed", w.failed.Load()).Msg("audit writer stopped")
}

// Written returns the number of entries persisted so far.
func (w *Writer) Written() int64 {
	return w.written.Load()
}

// Dropped returns the number of entries rejected because the queue was full.
func (w *Writer) Dropped() int64 {
	return w.dropped.Load()
}

// Failed returns the number of entries the store rejected.
func (w *Writer) Failed() int64 {
	return w.failed.Load()
}
