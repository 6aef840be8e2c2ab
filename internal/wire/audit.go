package wire

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"io"
	"sync"

	"github.com/rishav/exchange-sim-kernel/internal/events"
)

// AuditSink is an append-only, gob-encoded, CRC32-checksummed record of every
// event the matching core emitted, in the order it emitted them.
//
// Unlike a write-ahead log, this is never read back to reconstruct book
// state: the order book is rebuilt by resubmitting orders, not by replaying
// an event journal, so AuditSink is optional and purely observational. Its
// Replay method exists for test harnesses and forensic inspection, not
// crash recovery — nothing in this module calls it at startup.
type AuditSink struct {
	mu     sync.Mutex
	w      *bufio.Writer
	enc    *gob.Encoder
	closer io.Closer
	syncer interface{ Sync() error }
	count  uint64
}

// auditRecord is the on-disk unit written once per event: enough to verify
// the payload wasn't truncated or corrupted without needing the payload's
// own framing.
type auditRecord struct {
	SequenceNum uint64
	Kind        events.EventType
	Data        events.Event
	Checksum    uint32
}

func init() {
	gob.Register(&events.OrderAccepted{})
	gob.Register(&events.OrderRejected{})
	gob.Register(&events.OrderPartiallyFilled{})
	gob.Register(&events.OrderFilled{})
	gob.Register(&events.OrderCanceled{})
	gob.Register(&events.OrderExpired{})
	gob.Register(&events.TradeExecuted{})
	gob.Register(&events.DepthUpdate{})
	gob.Register(&events.DepthSnapshot{})
}

// NewAuditSink wraps w (typically a file, but any io.Writer works — tests
// commonly use a bytes.Buffer) in a buffered gob encoder. If w also
// implements io.Closer and/or Sync() error, Close and Sync forward to it.
func NewAuditSink(w io.Writer) *AuditSink {
	bw := bufio.NewWriter(w)
	sink := &AuditSink{
		w:   bw,
		enc: gob.NewEncoder(bw),
	}
	if c, ok := w.(io.Closer); ok {
		sink.closer = c
	}
	if s, ok := w.(interface{ Sync() error }); ok {
		sink.syncer = s
	}
	return sink
}

// Append encodes evt as an auditRecord and writes it. Append never returns
// an error that should stop matching: callers treat a failing audit sink as
// a logging failure, not a rejection of the event it tried to record.
func (s *AuditSink) Append(evt events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checksum, err := checksumOf(evt)
	if err != nil {
		return fmt.Errorf("wire: checksum event: %w", err)
	}
	rec := auditRecord{
		SequenceNum: evt.Seq(),
		Kind:        evt.Kind(),
		Data:        evt,
		Checksum:    checksum,
	}
	if err := s.enc.Encode(&rec); err != nil {
		return fmt.Errorf("wire: append audit record: %w", err)
	}
	s.count++
	return nil
}

func checksumOf(evt events.Event) (uint32, error) {
	var buf []byte
	enc := gob.NewEncoder(bufferWriter{&buf})
	if err := enc.Encode(evt); err != nil {
		return 0, err
	}
	return crc32.ChecksumIEEE(buf), nil
}

// bufferWriter adapts a *[]byte to io.Writer for the checksum pre-pass,
// avoiding a bytes.Buffer allocation on every Append.
type bufferWriter struct{ buf *[]byte }

func (w bufferWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

// Count returns the number of records appended so far.
func (s *AuditSink) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Flush pushes buffered bytes to the underlying writer.
func (s *AuditSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// Sync flushes and, if the underlying writer supports it, fsyncs.
func (s *AuditSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.syncer != nil {
		return s.syncer.Sync()
	}
	return nil
}

// Close flushes and, if the underlying writer supports it, closes it.
func (s *AuditSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Replay decodes every record from r in order and invokes handler. It
// stops at the first decode error that isn't io.EOF. This is a forensic /
// test-harness helper; production code never calls it to rebuild state.
func Replay(r io.Reader, handler func(events.Event) error) (int, error) {
	dec := gob.NewDecoder(r)
	n := 0
	for {
		var rec auditRecord
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, fmt.Errorf("wire: decode audit record %d: %w", n, err)
		}
		if err := handler(rec.Data); err != nil {
			return n, err
		}
		n++
	}
}
