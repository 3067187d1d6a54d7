// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mempool

import (
	"sync"
)

// MemPool .
type MemPool struct {
	bufSize  int
	freeSize int
	pool     sync.Pool
}

// New creates a pool whose fresh buffers have bufSize capacity.
// Buffers with a capacity above freeSize are left to the GC on Free.
func New(bufSize, freeSize int) Allocator {
	if bufSize <= 0 {
		bufSize = 64
	}
	if freeSize <= 0 {
		freeSize = 64 * 1024
	}
	if freeSize < bufSize {
		freeSize = bufSize
	}

	mp := &MemPool{
		bufSize:  bufSize,
		freeSize: freeSize,
	}
	mp.pool.New = func() interface{} {
		buf := make([]byte, bufSize)
		return &buf
	}
	return mp
}

// Malloc .
func (mp *MemPool) Malloc(size int) []byte {
	if size < 0 {
		return nil
	}
	if size > mp.freeSize {
		return make([]byte, size)
	}
	pbuf := mp.pool.Get().(*[]byte)
	if cap(*pbuf) < size {
		mp.pool.Put(pbuf)
		return make([]byte, size)
	}
	return (*pbuf)[:size]
}

// Realloc grows buf to size, keeping its content. The old buffer is
// returned to the pool when a new one had to be taken.
func (mp *MemPool) Realloc(buf []byte, size int) []byte {
	if size <= cap(buf) {
		return buf[:size]
	}
	newBuf := mp.Malloc(size)
	copy(newBuf, buf)
	mp.Free(buf)
	return newBuf
}

// Append .
func (mp *MemPool) Append(buf []byte, more ...byte) []byte {
	if len(more) == 0 {
		return buf
	}
	if buf == nil {
		buf = mp.Malloc(len(more))[:0]
	}
	n := len(buf)
	if n+len(more) > cap(buf) {
		size := cap(buf) * 2
		if size < n+len(more) {
			size = n + len(more)
		}
		buf = mp.Realloc(buf, size)[:n]
	}
	return append(buf, more...)
}

// Free .
func (mp *MemPool) Free(buf []byte) {
	if cap(buf) == 0 || cap(buf) > mp.freeSize {
		return
	}
	buf = buf[:cap(buf)]
	mp.pool.Put(&buf)
}
