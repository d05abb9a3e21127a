package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/farum-panel/internal/domain"
	"github.com/PabloGalante/farum-panel/internal/observability"
)

const writeTimeout = 5 * time.Second

// EventSink persists one event. The Firestore store implements it.
type EventSink interface {
	SaveEvent(ctx context.Context, ev domain.TelemetryEvent) error
}

// AsyncRecorder hands events to a sink from a background goroutine. Record
// never blocks: events are dropped when the buffer is full.
type AsyncRecorder struct {
	sink EventSink
	ch   chan domain.TelemetryEvent
	done chan struct{}

	mu     sync.RWMutex
	closed bool

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewAsyncRecorder(sink EventSink, buffer int) *AsyncRecorder {
	if buffer <= 0 {
		buffer = 256
	}
	r := &AsyncRecorder{
		sink: sink,
		ch:   make(chan domain.TelemetryEvent, buffer),
		done: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *AsyncRecorder) Record(_ context.Context, ev domain.TelemetryEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.ch <- ev:
	default:
		r.dropped.Add(1)
	}
}

// Close flushes buffered events and stops the writer.
func (r *AsyncRecorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
	r.mu.Unlock()
	<-r.done
}

// Dropped counts events lost to a full buffer or a closed recorder.
func (r *AsyncRecorder) Dropped() int64 { return r.dropped.Load() }

// Failed counts events the sink rejected.
func (r *AsyncRecorder) Failed() int64 { return r.failed.Load() }

func (r *AsyncRecorder) run() {
	defer close(r.done)

	for ev := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := r.sink.SaveEvent(ctx, ev)
		cancel()
		if err == nil {
			continue
		}

		log := observability.Logger().With(zap.String("event", string(ev.Name)), zap.Error(err))
		switch Classify(err) {
		case FailureDuplicate:
			log.Debug("telemetry event already stored")
		case FailureTransient:
			r.failed.Add(1)
			log.Warn("telemetry write failed, backend unavailable")
		default:
			r.failed.Add(1)
			log.Error("telemetry write rejected")
		}
	}
}

// Failure groups sink errors by how they should be reported.
type Failure string

const (
	FailureDuplicate Failure = "duplicate"
	FailureTransient Failure = "transient"
	FailurePermanent Failure = "permanent"
)

// Classify maps a gRPC status carried by err to a Failure.
func Classify(err error) Failure {
	switch status.Code(err) {
	case codes.AlreadyExists:
		return FailureDuplicate
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return FailureTransient
	default:
		return FailurePermanent
	}
}
