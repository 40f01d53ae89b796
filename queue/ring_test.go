package queue

import (
	"sync"
	"testing"

	"github.com/gonzalop/mqtt-embedded/internal/packet"
	"github.com/gonzalop/mqtt-embedded/model"
)

func TestEnqueueDequeueFIFO(t *testing.T) {
	r := New(4)
	for i := 0; i < 3; i++ {
		req := model.Request{Publish: &model.PublishRequest{QoS: packet.AtMostOnce, Topic: "t"}}
		if !r.Enqueue(req) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("len = %d, want 3", r.Len())
	}

	for i := 0; i < 3; i++ {
		peeked, ok := r.Peek()
		if !ok {
			t.Fatalf("peek %d: empty", i)
		}
		dequeued, ok := r.Dequeue()
		if !ok {
			t.Fatalf("dequeue %d: empty", i)
		}
		if peeked.Publish.Topic != dequeued.Publish.Topic {
			t.Fatalf("peek/dequeue mismatch at %d", i)
		}
	}
	if r.Ready() {
		t.Fatalf("ring should be empty")
	}
}

func TestEnqueueFullRejected(t *testing.T) {
	r := New(2) // already a power of two, so the ring holds exactly 2
	ok1 := r.Enqueue(model.Request{})
	ok2 := r.Enqueue(model.Request{})
	if !ok1 || !ok2 {
		t.Fatalf("expected first two enqueues to succeed")
	}
	if r.Enqueue(model.Request{}) {
		t.Fatalf("expected ring at capacity to reject enqueue")
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	r := New(64)
	const n = 10000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.Enqueue(model.Request{Publish: &model.PublishRequest{QoS: packet.AtMostOnce, Topic: "t"}}) {
			}
		}
	}()

	received := 0
	go func() {
		defer wg.Done()
		for received < n {
			if _, ok := r.Dequeue(); ok {
				received++
			}
		}
	}()

	wg.Wait()
	if received != n {
		t.Fatalf("received %d, want %d", received, n)
	}
}
