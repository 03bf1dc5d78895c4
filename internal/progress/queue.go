package progress

import "sync"

// Queue is an unbounded FIFO of progress messages shared between one
// producer and one consumer.
//
// Design:
// - Put appends and returns immediately; the producer never waits
// - Next blocks until a message is available or the queue is closed
// - Storage grows as needed and is compacted once fully drained
// - Close wakes the consumer; messages already queued are still delivered
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	messages []Message
	readPos  int
	closed   bool
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	q := &Queue{
		messages: make([]Message, 0, 256),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put appends m to the queue. Messages put after Close are dropped.
func (q *Queue) Put(m Message) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.messages = append(q.messages, m)
	q.cond.Signal() // Wake the consumer
}

// Next returns the oldest unread message. It blocks while the queue is
// empty and open, and returns false once the queue is closed and drained.
func (q *Queue) Next() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.readPos >= len(q.messages) {
		if q.closed {
			return Message{}, false
		}
		q.cond.Wait()
	}

	m := q.messages[q.readPos]
	q.readPos++

	// Everything consumed - reuse the backing array
	if q.readPos == len(q.messages) {
		q.messages = q.messages[:0]
		q.readPos = 0
	}

	return m, true
}

// Close signals that no more messages will be put.
// Wakes up a blocked consumer.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}
