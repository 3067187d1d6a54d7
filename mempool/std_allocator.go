// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mempool

// stdAllocator leaves everything to the GC.
type stdAllocator struct{}

// Malloc .
func (a *stdAllocator) Malloc(size int) []byte {
	return make([]byte, size)
}

// Realloc .
func (a *stdAllocator) Realloc(buf []byte, size int) []byte {
	if size <= cap(buf) {
		return buf[:size]
	}
	newBuf := make([]byte, size)
	copy(newBuf, buf)
	return newBuf
}

// Append .
func (a *stdAllocator) Append(buf []byte, more ...byte) []byte {
	return append(buf, more...)
}

// Free .
func (a *stdAllocator) Free(buf []byte) {}

// NewSTD returns an Allocator backed by make and append only.
func NewSTD() Allocator {
	return &stdAllocator{}
}
