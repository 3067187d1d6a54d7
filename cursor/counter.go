// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cursor

// Counter wraps a Cursor and never lets more than limit bytes be read
// through it. Bytes handed back with Reset or Push are returned to the
// allowance.
type Counter struct {
	cursor Cursor
	limit  int64
	count  int64
}

// NewCounter creates a Counter allowing limit bytes to be read from c.
func NewCounter(c Cursor, limit int64) *Counter {
	return &Counter{cursor: c, limit: limit}
}

// Count returns the number of bytes consumed through the Counter.
func (c *Counter) Count() int64 {
	return c.count
}

// Limit returns the allowance the Counter was created with.
func (c *Counter) Limit() int64 {
	return c.limit
}

// Remaining returns the number of bytes that may still be read.
func (c *Counter) Remaining() int64 {
	if c.count >= c.limit {
		return 0
	}
	return c.limit - c.count
}

// IsOpen implements Cursor.
func (c *Counter) IsOpen() bool {
	return c.cursor.IsOpen()
}

// IsReady implements Cursor.
func (c *Counter) IsReady() bool {
	n, err := c.Ready()
	return err == nil && n > 0
}

// Ready implements Cursor.
func (c *Counter) Ready() (int, error) {
	left := c.Remaining()
	if left <= 0 {
		return 0, ErrLimitReached
	}
	n, err := c.cursor.Ready()
	if err != nil {
		return 0, err
	}
	if int64(n) > left {
		n = int(left)
	}
	return n, nil
}

// Read implements Cursor.
func (c *Counter) Read(p []byte) (int, error) {
	left := c.Remaining()
	if left <= 0 {
		return 0, ErrLimitReached
	}
	if int64(len(p)) > left {
		p = p[:left]
	}
	n, err := c.cursor.Read(p)
	c.count += int64(n)
	return n, err
}

// Push implements Cursor.
func (c *Counter) Push(p []byte) {
	c.cursor.Push(p)
	c.count -= int64(len(p))
}

// Reset implements Cursor.
func (c *Counter) Reset(n int) int {
	n = c.cursor.Reset(n)
	c.count -= int64(n)
	return n
}
