// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mempool

// DefaultMemPool is shared by every consumer that is not configured
// with its own Allocator. Buffers up to 1M are recycled.
var DefaultMemPool Allocator = New(1024, 1024*1024)

// Allocator hands out byte slices for header scan buffers, update
// scratch arrays and body buffers.
type Allocator interface {
	Malloc(size int) []byte
	Realloc(buf []byte, size int) []byte
	Append(buf []byte, more ...byte) []byte
	Free(buf []byte)
}

// Malloc exports default package method.
func Malloc(size int) []byte {
	return DefaultMemPool.Malloc(size)
}

// Realloc exports default package method.
func Realloc(buf []byte, size int) []byte {
	return DefaultMemPool.Realloc(buf, size)
}

// Append exports default package method.
func Append(buf []byte, more ...byte) []byte {
	return DefaultMemPool.Append(buf, more...)
}

// Free exports default package method.
func Free(buf []byte) {
	DefaultMemPool.Free(buf)
}

// Init replaces DefaultMemPool.
func Init(bufSize, freeSize int) {
	DefaultMemPool = New(bufSize, freeSize)
}
