// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cursor

import (
	"errors"
	"testing"
)

func TestCounterLimit(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte("0123456789"))
	c := NewCounter(b, 4)

	if n, _ := c.Ready(); n != 4 {
		t.Fatalf("Ready: %v != 4", n)
	}
	p := make([]byte, 8)
	n, err := c.Read(p)
	if err != nil || n != 4 || string(p[:n]) != "0123" {
		t.Fatalf("Read: %q, %v", p[:n], err)
	}
	if _, err := c.Ready(); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("Ready past limit: %v", err)
	}
	if _, err := c.Read(p); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("Read past limit: %v", err)
	}
	if b.Len() != 6 {
		t.Fatalf("counter read past its limit, %v bytes left", b.Len())
	}
}

func TestCounterResetPush(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte("abcdef"))
	c := NewCounter(b, 6)

	p := make([]byte, 6)
	c.Read(p)
	c.Reset(3)
	if c.Count() != 3 || c.Remaining() != 3 {
		t.Fatalf("after Reset: count %v, remaining %v", c.Count(), c.Remaining())
	}
	c.Push([]byte("xy"))
	if c.Remaining() != 5 {
		t.Fatalf("after Push: remaining %v", c.Remaining())
	}
	out := make([]byte, 8)
	n, err := c.Read(out)
	if err != nil || string(out[:n]) != "xydef" {
		t.Fatalf("read %q, %v", out[:n], err)
	}
	if c.Remaining() != 0 {
		t.Fatalf("remaining %v != 0", c.Remaining())
	}
}
