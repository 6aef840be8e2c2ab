package disruptor

import (
	"log"
	"time"

	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/wire"
)

// EventBatcher batches events before writing to the audit sink to reduce
// I/O overhead.
//
// Design:
// - Async goroutine that receives events from the processor
// - Batches events until reaching batch size or timeout
// - Single flush per batch instead of per event
//
// Example:
// - Without batching: 1000 events x one flush each = 1000 flushes
// - With batching: 1000 events x one flush per batch = 1 flush
type EventBatcher struct {
	sink          *wire.AuditSink
	queue         chan events.Event
	batchSize     int
	flushInterval time.Duration
	shutdownCh    chan struct{}
	shutdownDone  chan struct{}
}

// NewEventBatcher creates a new event batcher. sink may be nil, in which
// case QueueEvent is a no-op (the audit trail is optional, see
// internal/wire.AuditSink's doc comment).
//
// Parameters:
// - sink: the audit sink to write batches to
// - batchSize: number of events to batch before flushing (e.g., 1000)
// - flushIntervalMs: maximum time to wait before flushing (e.g., 10ms)
func NewEventBatcher(sink *wire.AuditSink, batchSize int, flushIntervalMs int) *EventBatcher {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if flushIntervalMs <= 0 {
		flushIntervalMs = 10
	}

	return &EventBatcher{
		sink:          sink,
		queue:         make(chan events.Event, batchSize*2),
		batchSize:     batchSize,
		flushInterval: time.Duration(flushIntervalMs) * time.Millisecond,
		shutdownCh:    make(chan struct{}),
		shutdownDone:  make(chan struct{}),
	}
}

// Start begins the batching loop.
func (b *EventBatcher) Start() {
	go b.batchLoop()
}

func (b *EventBatcher) batchLoop() {
	defer close(b.shutdownDone)

	batch := make([]events.Event, 0, b.batchSize)
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-b.queue:
			batch = append(batch, event)
			if len(batch) >= b.batchSize {
				b.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				b.flush(batch)
				batch = batch[:0]
			}

		case <-b.shutdownCh:
			if len(batch) > 0 {
				b.flush(batch)
			}
			for {
				select {
				case event := <-b.queue:
					b.appendOne(event)
				default:
					if b.sink != nil {
						_ = b.sink.Flush()
					}
					return
				}
			}
		}
	}
}

// flush writes a batch of events to the audit sink.
func (b *EventBatcher) flush(batch []events.Event) {
	for _, event := range batch {
		b.appendOne(event)
	}
	if b.sink != nil {
		if err := b.sink.Flush(); err != nil {
			log.Printf("ERROR: failed to flush audit sink: %v", err)
		}
	}
}

func (b *EventBatcher) appendOne(event events.Event) {
	if b.sink == nil {
		return
	}
	if err := b.sink.Append(event); err != nil {
		log.Printf("ERROR: failed to append audit record: %v", err)
	}
}

// QueueEvent queues an event for batched writing.
//
// This method is non-blocking. If the queue is full, the event is dropped
// (though this should be rare with proper buffer sizing).
func (b *EventBatcher) QueueEvent(event events.Event) {
	select {
	case b.queue <- event:
	default:
		log.Printf("WARNING: event queue full, dropping event: %T", event)
	}
}

// Shutdown gracefully shuts down the batcher.
//
// It flushes all remaining events and waits for completion.
func (b *EventBatcher) Shutdown() {
	close(b.shutdownCh)
	<-b.shutdownDone
}
