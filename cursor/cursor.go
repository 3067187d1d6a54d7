// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cursor provides the non-blocking byte source every nbhttp
// consumer reads from.
//
// A consumer asks Ready before each Read so that a Read never waits for
// the transport. Bytes that a consumer reads but that belong to the next
// frame are handed back with Reset (the tail of the most recent Read) or
// Push (arbitrary bytes, read before anything else).
package cursor

import (
	"errors"
)

var (
	// ErrLimitReached is returned by a Counter whose allowance is used up
	// while a consumer still asks for bytes.
	ErrLimitReached = errors.New("cursor: byte limit reached")
)

// Cursor is a position within an in-order byte stream.
type Cursor interface {
	// IsOpen reports whether the transport may still deliver bytes.
	IsOpen() bool

	// IsReady reports whether Ready would return a positive count.
	IsReady() bool

	// Ready returns the number of bytes that can be read without
	// blocking. It fails once the stream is closed and drained.
	Ready() (int, error)

	// Read reads at most len(p) of the ready bytes.
	Read(p []byte) (int, error)

	// Push prepends p so that it is read before anything else.
	Push(p []byte)

	// Reset moves back over the last n bytes of the most recent Read.
	// It returns the number of bytes actually moved back, which is
	// truncated to the size of that Read.
	Reset(n int) int
}

func prepend(p, head []byte) []byte {
	if len(p) == 0 {
		return head
	}
	b := make([]byte, len(p)+len(head))
	copy(b, p)
	copy(b[len(p):], head)
	return b
}
