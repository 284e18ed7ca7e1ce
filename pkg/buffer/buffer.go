package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrIteratorDone is returned when iteration is complete.
var ErrIteratorDone = errors.New("iterator done")

// Buffer is a thread-safe growable buffer. Writers append without blocking
// and the buffer grows as needed, which suits accumulating a recording whose
// length is unknown until it stops.
type Buffer[T any] struct {
	mu         sync.Mutex
	closeWrite bool
	buf        []T
}

// N creates a new Buffer with the specified initial capacity. The capacity is
// only a hint; the buffer grows beyond it.
func N[T any](n int) *Buffer[T] {
	return &Buffer[T]{
		buf: make([]T, 0, n),
	}
}

// Write appends p to the buffer. It returns io.ErrClosedPipe after CloseWrite.
func (b *Buffer[T]) Write(p []T) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeWrite {
		return 0, fmt.Errorf("buffer: write to closed buffer: %w", io.ErrClosedPipe)
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// CloseWrite stops further writes. Buffered data stays readable.
func (b *Buffer[T]) CloseWrite() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeWrite = true
	return nil
}

// Len returns the number of buffered elements.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Bytes returns a copy of the buffered elements.
func (b *Buffer[T]) Bytes() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]T, len(b.buf))
	copy(out, b.buf)
	return out
}
