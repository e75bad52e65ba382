// internal/ring/ring.go
package ring

import (
	"errors"
	"sync/atomic"
)

// Buffer is a single-producer/single-consumer byte queue.
//
// The producer (a receive pump) only calls Push; the consumer (the bridge
// loop) only calls Pop, Discard and Len. head and tail are the only state
// shared between them. Capacity is a power of two, fixed in New.
type Buffer struct {
	buf  []byte
	mask uint32

	head atomic.Uint32 // next read position, owned by the consumer
	tail atomic.Uint32 // next write position, owned by the producer

	notify  chan struct{}
	dropped atomic.Uint64
}

// New creates a buffer of size bytes. size must be a power of two.
func New(size int) (*Buffer, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, errors.New("ring: size must be a power of two >= 2")
	}
	return &Buffer{
		buf:    make([]byte, size),
		mask:   uint32(size - 1),
		notify: make(chan struct{}, 1),
	}, nil
}

// Push appends as much of p as fits and returns the count stored.
// Bytes that do not fit are dropped and counted. Push never blocks.
func (b *Buffer) Push(p []byte) int {
	tail := b.tail.Load()
	head := b.head.Load()
	free := uint32(len(b.buf)) - (tail - head)

	n := uint32(len(p))
	if n > free {
		b.dropped.Add(uint64(n - free))
		n = free
	}
	for i := uint32(0); i < n; i++ {
		b.buf[(tail+i)&b.mask] = p[i]
	}
	b.tail.Store(tail + n)

	if n > 0 {
		select {
		case b.notify <- struct{}{}:
		default:
		}
	}
	return int(n)
}

// Pop moves up to len(p) buffered bytes into p.
func (b *Buffer) Pop(p []byte) int {
	head := b.head.Load()
	tail := b.tail.Load()

	n := tail - head
	if n > uint32(len(p)) {
		n = uint32(len(p))
	}
	for i := uint32(0); i < n; i++ {
		p[i] = b.buf[(head+i)&b.mask]
	}
	b.head.Store(head + n)
	return int(n)
}

// Discard drops everything currently buffered and returns the count.
func (b *Buffer) Discard() int {
	head := b.head.Load()
	tail := b.tail.Load()
	b.head.Store(tail)
	return int(tail - head)
}

// Len is the number of buffered bytes.
func (b *Buffer) Len() int {
	return int(b.tail.Load() - b.head.Load())
}

// Cap is the fixed capacity.
func (b *Buffer) Cap() int { return len(b.buf) }

// Ready is signalled after Push stores at least one byte.
// A signal may be stale; consumers must re-check Len.
func (b *Buffer) Ready() <-chan struct{} { return b.notify }

// Dropped is the number of bytes lost to a full buffer.
func (b *Buffer) Dropped() uint64 { return b.dropped.Load() }
