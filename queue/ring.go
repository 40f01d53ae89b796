// Package queue provides a lock-free single-producer/single-consumer ring
// buffer for application Requests, satisfying the event loop's
// RequestQueue contract. The loop owns the consumer end exclusively; the
// application owns the producer end. Capacity is fixed at construction;
// there is no dynamic growth, matching the no-dynamic-heap constraint of
// the runtime this feeds.
package queue

import (
	"sync/atomic"

	"github.com/gonzalop/mqtt-embedded/model"
)

// Ring is a fixed-capacity SPSC ring buffer of model.Request values. The
// zero value is not usable; construct with New.
//
// head is advanced only by Dequeue (the consumer), tail only by Enqueue
// (the producer); each side only ever reads the other's atomic counter,
// never writes it, which is what makes this safe without a mutex.
type Ring struct {
	buf  []model.Request
	mask uint64

	head atomic.Uint64 // next slot to dequeue
	tail atomic.Uint64 // next slot to enqueue
}

// New returns a Ring that holds up to capacity requests. capacity is
// rounded up to the next power of two.
func New(capacity int) *Ring {
	if capacity < 1 {
		panic("queue: capacity must be >= 1")
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring{
		buf:  make([]model.Request, size),
		mask: uint64(size - 1),
	}
}

// Enqueue appends req to the ring. It returns false if the ring is full;
// the producer is expected to retry or apply backpressure rather than
// block.
func (r *Ring) Enqueue(req model.Request) bool {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail-head >= uint64(len(r.buf)) {
		return false
	}
	r.buf[tail&r.mask] = req
	r.tail.Store(tail + 1)
	return true
}

// Peek returns the next request without removing it, the RequestQueue
// contract's peek().
func (r *Ring) Peek() (model.Request, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		return model.Request{}, false
	}
	return r.buf[head&r.mask], true
}

// Dequeue removes and returns the next request, the RequestQueue
// contract's dequeue().
func (r *Ring) Dequeue() (model.Request, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		return model.Request{}, false
	}
	req := r.buf[head&r.mask]
	r.buf[head&r.mask] = model.Request{}
	r.head.Store(head + 1)
	return req, true
}

// Ready reports whether at least one request is queued, the RequestQueue
// contract's ready().
func (r *Ring) Ready() bool {
	return r.head.Load() != r.tail.Load()
}

// Len reports the number of requests currently queued.
func (r *Ring) Len() int {
	return int(r.tail.Load() - r.head.Load())
}
