package midi

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/phantoma/common"
)

// Writer writes one command to the hardware. It is only called from the queue's writer goroutine.
type Writer interface {
	Write(out Output) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(out Output) error

func (f WriterFunc) Write(out Output) error { return f(out) }

// Queue is a Device built from bounded mailboxes. The device reader calls Push; the frame loop calls Recv;
// Send feeds a goroutine that calls the Writer. Full mailboxes drop rather than block.
type Queue struct {
	name   string
	in     chan Input
	out    chan Output
	writer Writer
	logger *slog.Logger

	mu     *sync.RWMutex
	closed bool
	done   chan struct{}

	droppedIn  atomic.Uint64
	droppedOut atomic.Uint64
}

var _ Device = &Queue{}

// NewQueue creates the queue and starts its writer goroutine.
//
// Parameters:
//   - name: the device name
//   - w: the hardware writer; nil discards output
//   - options: capacity and logger options
//
// Returns:
//   - *Queue: the running queue
func NewQueue(name string, w Writer, options ...QueueBuilderOption) *Queue {
	c := &queueConfig{inputs: DefaultCapacity, outputs: DefaultCapacity, logger: common.NopLogger()}
	for _, option := range options {
		option(c)
	}
	if w == nil {
		w = WriterFunc(func(Output) error { return nil })
	}

	q := &Queue{
		name:   name,
		in:     make(chan Input, c.inputs),
		out:    make(chan Output, c.outputs),
		writer: w,
		logger: c.logger,
		mu:     &sync.RWMutex{},
		done:   make(chan struct{}),
	}
	go q.write()
	return q
}

func (q *Queue) write() {
	defer close(q.done)
	for out := range q.out {
		if err := q.writer.Write(out); err != nil {
			q.logger.Warn("midi write failed", "device", q.name, "control", out.Control, "err", err)
		}
	}
}

func (q *Queue) Name() string { return q.name }

// Push queues a decoded input from the device reader. It returns false and drops the input when the
// mailbox is full.
func (q *Queue) Push(in Input) bool {
	select {
	case q.in <- in:
		return true
	default:
		if n := q.droppedIn.Add(1); n == 1 || n%100 == 0 {
			q.logger.Warn("midi input dropped", "device", q.name, "dropped", n)
		}
		return false
	}
}

func (q *Queue) Recv() []Input {
	var out []Input
	for {
		select {
		case in := <-q.in:
			out = append(out, in)
		default:
			return out
		}
	}
}

func (q *Queue) Send(out Output) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.out <- out:
		return true
	default:
		if n := q.droppedOut.Add(1); n == 1 || n%100 == 0 {
			q.logger.Warn("midi output dropped", "device", q.name, "dropped", n)
		}
		return false
	}
}

func (q *Queue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.out)
	}
	q.mu.Unlock()
	<-q.done
	return nil
}

// Dropped returns how many inputs and outputs were dropped on full mailboxes.
func (q *Queue) Dropped() (inputs, outputs uint64) {
	return q.droppedIn.Load(), q.droppedOut.Load()
}
