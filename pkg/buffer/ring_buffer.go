package buffer

import (
	"fmt"
	"io"
	"sync"
)

// RingBuffer is a thread-safe bounded FIFO that never blocks writers. When the
// buffer is full, Add overwrites the oldest element and counts it as
// overwritten, so a slow reader loses history instead of stalling producers.
//
// Readers either block on Next or take everything queued so far with Drain.
type RingBuffer[T any] struct {
	writeNotify chan struct{}

	mu          sync.Mutex
	buf         []T
	head, tail  int64
	overwritten uint64
	closeWrite  bool
}

// RingN creates a new RingBuffer holding at most size elements.
func RingN[T any](size int) *RingBuffer[T] {
	if size < 1 {
		size = 1
	}
	return &RingBuffer[T]{
		writeNotify: make(chan struct{}, 1),

		buf: make([]T, size),
	}
}

// Add appends t to the buffer. If the buffer is full the oldest element is
// discarded and Add reports overwrote=true.
func (rb *RingBuffer[T]) Add(t T) (overwrote bool, err error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closeWrite {
		return false, fmt.Errorf("buffer: write to closed buffer: %w", io.ErrClosedPipe)
	}
	size := int64(len(rb.buf))
	rb.buf[rb.tail%size] = t
	rb.tail++
	if rb.tail-rb.head > size {
		rb.head++
		rb.overwritten++
		overwrote = true
	}
	select {
	case rb.writeNotify <- struct{}{}:
	default:
	}
	return overwrote, nil
}

// Drain removes and returns every buffered element in insertion order. It
// never blocks; an empty buffer yields nil.
func (rb *RingBuffer[T]) Drain() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	n := int(rb.tail - rb.head)
	if n == 0 {
		return nil
	}
	out := make([]T, 0, n)
	var zero T
	size := int64(len(rb.buf))
	for rb.head < rb.tail {
		i := rb.head % size
		out = append(out, rb.buf[i])
		rb.buf[i] = zero
		rb.head++
	}
	return out
}

// Next removes and returns the oldest element, blocking until one is
// available. It returns ErrIteratorDone once the write side is closed and the
// buffer is empty.
func (rb *RingBuffer[T]) Next() (t T, err error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	for rb.head == rb.tail {
		if rb.closeWrite {
			err = ErrIteratorDone
			return
		}
		rb.mu.Unlock()
		<-rb.writeNotify
		rb.mu.Lock()
	}
	i := rb.head % int64(len(rb.buf))
	t = rb.buf[i]
	var zero T
	rb.buf[i] = zero
	rb.head++
	return t, nil
}

// Overwritten returns how many elements were discarded by Add because the
// buffer was full.
func (rb *RingBuffer[T]) Overwritten() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.overwritten
}

// Cap returns the maximum number of elements the buffer holds.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.buf)
}

// Len returns the number of elements currently in the buffer.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return int(rb.tail - rb.head)
}

// Snapshot returns a copy of the buffered elements, oldest first, without
// consuming them.
func (rb *RingBuffer[T]) Snapshot() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	out := make([]T, 0, rb.tail-rb.head)
	size := int64(len(rb.buf))
	for i := rb.head; i < rb.tail; i++ {
		out = append(out, rb.buf[i%size])
	}
	return out
}

// CloseWrite closes the write side of the buffer. Reads drain what is left
// and then return ErrIteratorDone.
func (rb *RingBuffer[T]) CloseWrite() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closeWrite {
		return nil
	}
	rb.closeWrite = true
	close(rb.writeNotify)
	return nil
}
