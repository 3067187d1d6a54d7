// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cursor

import (
	"net"

	"github.com/lesismal/llib/bytes"
)

// Buffer is a Cursor fed by a transport: the reactor calls Append with
// every chunk it receives and Close when the connection goes away.
//
// Buffer is not safe for concurrent use, it belongs to the goroutine
// that drives the connection.
type Buffer struct {
	queue *bytes.Buffer

	// head holds pushed and reset bytes, it is drained before queue.
	head []byte

	// last is a copy of the most recent Read, Reset rolls back into it.
	last []byte

	count  int64
	closed bool
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{queue: bytes.NewBuffer()}
}

// Append queues data received from the transport. The data is copied.
func (b *Buffer) Append(data []byte) error {
	if b.closed {
		return net.ErrClosed
	}
	if len(data) == 0 {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.queue.Push(cp)
	return nil
}

// Close marks the end of the stream. Bytes already queued can still be read.
func (b *Buffer) Close() {
	b.closed = true
}

// Count returns the number of bytes read so far, minus the bytes reset.
func (b *Buffer) Count() int64 {
	return b.count
}

// Len returns the number of bytes buffered and not yet read.
func (b *Buffer) Len() int {
	return len(b.head) + b.queue.Len()
}

// IsOpen implements Cursor.
func (b *Buffer) IsOpen() bool {
	return !b.closed
}

// IsReady implements Cursor.
func (b *Buffer) IsReady() bool {
	return b.Len() > 0
}

// Ready implements Cursor.
func (b *Buffer) Ready() (int, error) {
	n := b.Len()
	if n == 0 && b.closed {
		return 0, net.ErrClosed
	}
	return n, nil
}

// Read implements Cursor.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := copy(p, b.head)
	b.head = b.head[n:]
	if len(b.head) == 0 {
		b.head = nil
	}
	if n < len(p) {
		if left := b.queue.Len(); left > 0 {
			size := len(p) - n
			if size > left {
				size = left
			}
			data, err := b.queue.Pop(size)
			if err != nil {
				return n, err
			}
			n += copy(p[n:], data)
		}
	}
	if n == 0 && b.closed {
		return 0, net.ErrClosed
	}
	b.last = append(b.last[:0], p[:n]...)
	b.count += int64(n)
	return n, nil
}

// Push implements Cursor.
func (b *Buffer) Push(p []byte) {
	b.head = prepend(p, b.head)
}

// Reset implements Cursor.
func (b *Buffer) Reset(n int) int {
	if n > len(b.last) {
		n = len(b.last)
	}
	if n <= 0 {
		return 0
	}
	end := len(b.last)
	b.head = prepend(b.last[end-n:], b.head)
	b.last = b.last[:end-n]
	b.count -= int64(n)
	return n
}
