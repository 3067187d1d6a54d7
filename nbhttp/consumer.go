// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"github.com/lesismal/nbframe/cursor"
	"github.com/lesismal/nbframe/mempool"
)

// Consumer reads one frame from a cursor. Consume only reads the bytes
// that are ready and returns, it is called again with the same cursor
// when more bytes arrive until IsFinished reports true.
type Consumer interface {
	Consume(c cursor.Cursor) error
	IsFinished() bool
}

// FrameScanner is a frame delimited by a terminal token.
//
// Scan is given the bytes of each read in turn and reports whether the
// token ended within them, along with how many of them follow the token.
// Process is called once with the whole frame, token included.
type FrameScanner interface {
	Scan(data []byte) (past int, found bool)
	Process(frame []byte) error
}

// ChunkUpdater is a frame decoded chunk by chunk.
//
// Update is given the bytes of each read in turn and returns how many
// bytes at the end of data belong to the next frame, and whether the
// frame is complete.
type ChunkUpdater interface {
	Update(data []byte) (overflow int, done bool, err error)
}

// scanDriver accumulates bytes until a FrameScanner finds its token.
type scanDriver struct {
	allocator mempool.Allocator
	buf       []byte
	count     int
	chunk     int
	limit     int
	finished  bool
}

func (d *scanDriver) init(allocator mempool.Allocator, chunk, limit int) {
	d.allocator = allocator
	d.chunk = chunk
	d.limit = limit
}

func (d *scanDriver) grow(size int) {
	if size <= len(d.buf) {
		return
	}
	if rem := size % d.chunk; rem != 0 {
		size += d.chunk - rem
	}
	if d.limit > 0 && size > d.limit {
		size = d.limit
	}
	if d.buf == nil {
		d.buf = d.allocator.Malloc(size)
		return
	}
	d.buf = d.allocator.Realloc(d.buf, size)
}

func (d *scanDriver) consume(c cursor.Cursor, s FrameScanner) error {
	for !d.finished {
		ready, err := c.Ready()
		if err != nil {
			return err
		}
		if ready <= 0 {
			return nil
		}
		size := ready
		if size > d.chunk {
			size = d.chunk
		}
		if d.limit > 0 {
			space := d.limit - d.count
			if space <= 0 {
				return ErrTooLong
			}
			if size > space {
				size = space
			}
		}
		d.grow(d.count + size)

		n, err := c.Read(d.buf[d.count : d.count+size])
		if err != nil {
			return err
		}
		if n <= 0 {
			return nil
		}
		past, found := s.Scan(d.buf[d.count : d.count+n])
		d.count += n
		if found {
			if past > 0 {
				d.count -= c.Reset(past)
			}
			d.finished = true
			err = s.Process(d.buf[:d.count])
			d.release()
			return err
		}
		if d.limit > 0 && d.count >= d.limit {
			return ErrTooLong
		}
	}
	return nil
}

func (d *scanDriver) release() {
	if d.buf != nil {
		d.allocator.Free(d.buf)
		d.buf = nil
	}
}

func (d *scanDriver) clear() {
	d.release()
	d.count = 0
	d.finished = false
}

// updateDriver reads into a fixed size scratch array and hands each
// chunk to a ChunkUpdater.
type updateDriver struct {
	allocator mempool.Allocator
	scratch   []byte
	size      int
	finished  bool
}

func (d *updateDriver) init(allocator mempool.Allocator, size int) {
	d.allocator = allocator
	d.size = size
}

func (d *updateDriver) consume(c cursor.Cursor, u ChunkUpdater) error {
	for !d.finished {
		ready, err := c.Ready()
		if err != nil {
			return err
		}
		if ready <= 0 {
			return nil
		}
		if d.scratch == nil {
			d.scratch = d.allocator.Malloc(d.size)
		}
		size := ready
		if size > len(d.scratch) {
			size = len(d.scratch)
		}
		n, err := c.Read(d.scratch[:size])
		if err != nil {
			return err
		}
		if n <= 0 {
			return nil
		}
		overflow, done, err := u.Update(d.scratch[:n])
		if err != nil {
			return err
		}
		if overflow > 0 {
			c.Reset(overflow)
			done = true
		}
		if done {
			d.finished = true
			d.release()
		}
	}
	return nil
}

func (d *updateDriver) release() {
	if d.scratch != nil {
		d.allocator.Free(d.scratch)
		d.scratch = nil
	}
}

// emptyConsumer is the body of a message that carries none.
type emptyConsumer struct {
	body *Body
}

func (e *emptyConsumer) Consume(c cursor.Cursor) error {
	return nil
}

func (e *emptyConsumer) IsFinished() bool {
	return true
}

func (e *emptyConsumer) Body() *Body {
	return e.body
}
