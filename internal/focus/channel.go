package focus

import (
	"context"
	"sync"
	"time"
)

// Request asks the orchestrator to begin a focus session. It carries no
// parameters; the target is chosen by title at handling time.
type Request struct {
	Issued time.Time
}

// ResultKind tags a Result.
type ResultKind int

const (
	// Success means the target was found and the filters are active.
	Success ResultKind = iota
	// Error means the request ended without starting a session.
	Error
)

func (k ResultKind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the orchestrator's answer to one Request.
type Result struct {
	Kind      ResultKind
	Text      string
	SessionID string
}

// OK reports whether r is a Success.
func (r Result) OK() bool {
	return r.Kind == Success
}

func (r Result) String() string {
	return r.Kind.String() + ": " + r.Text
}

// queue is an unbounded FIFO. Producers never block; consumers either poll
// or wait on the notify channel.
type queue[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{notify: make(chan struct{}, 1)}
}

func (q *queue[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *queue[T]) tryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

func (q *queue[T]) pop(ctx context.Context) (T, error) {
	for {
		if v, ok := q.tryPop(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.notify:
		}
	}
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Channel connects the presentation layer to the orchestrator: requests
// flow in one direction, results in the other.
type Channel struct {
	requests *queue[Request]
	results  *queue[Result]
}

// NewChannel creates an empty Channel.
func NewChannel() *Channel {
	return &Channel{
		requests: newQueue[Request](),
		results:  newQueue[Result](),
	}
}

// RequestFocus queues a request to begin a focus session. It never blocks.
func (c *Channel) RequestFocus() {
	c.requests.push(Request{Issued: time.Now()})
}

// PollResult returns the oldest unread result, if any. It never blocks.
func (c *Channel) PollResult() (Result, bool) {
	return c.results.tryPop()
}

// WaitResult blocks until a result is available or ctx is done.
func (c *Channel) WaitResult(ctx context.Context) (Result, error) {
	return c.results.pop(ctx)
}

// Pending returns the number of requests not yet picked up.
func (c *Channel) Pending() int {
	return c.requests.len()
}

func (c *Channel) nextRequest(ctx context.Context) (Request, error) {
	return c.requests.pop(ctx)
}

func (c *Channel) publish(r Result) {
	c.results.push(r)
}
