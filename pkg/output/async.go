package output

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by an async output that cannot keep up.
var ErrQueueFull = errors.New("output queue full")

// AsyncOutput forwards records to another Output from its own goroutine so
// a slow sink never delays sampling. Records are delivered in order; when
// the buffer is full the newest record is dropped.
type AsyncOutput struct {
	next   Output
	logger *zap.SugaredLogger
	queue  chan Record

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Async wraps next with a queue of size buffer.
func Async(next Output, buffer int, logger *zap.SugaredLogger) *AsyncOutput {
	if buffer <= 0 {
		buffer = 1
	}
	a := &AsyncOutput{next: next, logger: logger, queue: make(chan Record, buffer)}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *AsyncOutput) run() {
	defer a.wg.Done()
	for r := range a.queue {
		if err := a.next.Publish(r); err != nil {
			a.logger.Warnw("async publish failed", "error", err)
		}
	}
}

func (a *AsyncOutput) Publish(r Record) error {
	select {
	case a.queue <- r:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close drains queued records, then closes the wrapped output. Publish
// must not be called after Close.
func (a *AsyncOutput) Close() error {
	a.closeOnce.Do(func() {
		close(a.queue)
		a.wg.Wait()
		a.closeErr = a.next.Close()
	})
	return a.closeErr
}
