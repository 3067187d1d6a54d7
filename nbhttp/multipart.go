// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"bytes"
	"fmt"

	"github.com/lesismal/nbframe/cursor"
)

// boundaryPrefix starts every delimiter, "\r\n--" followed by the
// boundary token. The first delimiter of a body has no leading CRLF.
var boundaryPrefix = []byte("\r\n--")

const (
	boundaryTailNext = "\r\n"
	boundaryTailLast = "--"
)

func newDelimiter(token string) []byte {
	delimiter := make([]byte, 0, len(boundaryPrefix)+len(token))
	delimiter = append(delimiter, boundaryPrefix...)
	return append(delimiter, token...)
}

// boundaryConsumer validates a boundary line and tells whether another
// part follows it or the series is over.
type boundaryConsumer struct {
	updateDriver

	delimiter []byte
	start     int
	seek      int

	tail    [2]byte
	tailLen int
	last    bool
}

func newBoundaryConsumer(conf *Config, delimiter []byte, first bool) *boundaryConsumer {
	bc := &boundaryConsumer{delimiter: delimiter}
	if first {
		bc.start = 2
	}
	bc.init(conf.Allocator, conf.ScratchSize)
	return bc
}

func (bc *boundaryConsumer) Consume(c cursor.Cursor) error {
	return bc.consume(c, bc)
}

func (bc *boundaryConsumer) IsFinished() bool {
	return bc.finished
}

// Update implements ChunkUpdater.
func (bc *boundaryConsumer) Update(data []byte) (int, bool, error) {
	token := bc.delimiter[len(boundaryPrefix):]
	for i, c := range data {
		switch {
		case bc.start < len(boundaryPrefix):
			if c != boundaryPrefix[bc.start] {
				return 0, false, fmt.Errorf("%w: unexpected %q before boundary", ErrInvalidBoundary, c)
			}
			bc.start++
		case bc.seek < len(token):
			if c != token[bc.seek] {
				return 0, false, fmt.Errorf("%w: boundary mismatch at %d", ErrInvalidBoundary, bc.seek)
			}
			bc.seek++
		default:
			bc.tail[bc.tailLen] = c
			bc.tailLen++
			if bc.tailLen < len(bc.tail) {
				continue
			}
			switch string(bc.tail[:]) {
			case boundaryTailLast:
				bc.last = true
			case boundaryTailNext:
			default:
				return 0, false, fmt.Errorf("%w: unexpected %q after boundary", ErrInvalidBoundary, bc.tail[:])
			}
			return len(data) - i - 1, true, nil
		}
	}
	return 0, false, nil
}

// contentConsumer reads the content of a part up to the next delimiter.
// Bytes held back as a possible delimiter are appended to the content
// when the match fails. The delimiter itself is pushed back onto the
// cursor for the next boundaryConsumer. A nil body discards the content.
type contentConsumer struct {
	updateDriver

	body      *Body
	delimiter []byte

	// start counts the matched bytes of boundaryPrefix, seek the
	// matched bytes of the token once start is complete.
	start int
	seek  int

	pushed bool
}

func newContentConsumer(conf *Config, body *Body, delimiter []byte) *contentConsumer {
	cc := &contentConsumer{body: body, delimiter: delimiter}
	cc.init(conf.Allocator, conf.ScratchSize)
	return cc
}

func (cc *contentConsumer) Consume(c cursor.Cursor) error {
	if err := cc.consume(c, cc); err != nil {
		return err
	}
	if cc.finished && !cc.pushed {
		cc.pushed = true
		c.Push(cc.delimiter)
	}
	return nil
}

func (cc *contentConsumer) IsFinished() bool {
	return cc.finished
}

func (cc *contentConsumer) append(data []byte) {
	if cc.body != nil {
		cc.body.append(data)
	}
}

// Update implements ChunkUpdater.
func (cc *contentConsumer) Update(data []byte) (int, bool, error) {
	// mark is where the current run of content starts, -1 while bytes
	// are held back as a possible delimiter.
	mark := 0
	if cc.start > 0 {
		mark = -1
	}
	for i := 0; i < len(data); i++ {
		matched := cc.start + cc.seek
		if matched == 0 {
			j := bytes.IndexByte(data[i:], boundaryPrefix[0])
			if j < 0 {
				break
			}
			i += j
			cc.append(data[mark:i])
			mark = -1
			cc.start = 1
			continue
		}

		c := data[i]
		if c == cc.delimiter[matched] {
			if cc.start < len(boundaryPrefix) {
				cc.start++
			} else {
				cc.seek++
			}
			if cc.start+cc.seek == len(cc.delimiter) {
				return len(data) - i - 1, true, nil
			}
			continue
		}

		cc.append(cc.delimiter[:matched])
		cc.start, cc.seek = 0, 0
		if c == boundaryPrefix[0] {
			cc.start = 1
			continue
		}
		mark = i
	}
	if mark >= 0 {
		cc.append(data[mark:])
	}
	return 0, false, nil
}

// partConsumer reads one part: its header block, then its content, or
// for a nested multipart part its own series followed by the epilogue
// up to the enclosing delimiter.
type partConsumer struct {
	conf      *Config
	delimiter []byte

	header  *headerConsumer
	content Consumer
	nested  *seriesConsumer
	part    *Part
}

func newPartConsumer(conf *Config, delimiter []byte) *partConsumer {
	return &partConsumer{
		conf:      conf,
		delimiter: delimiter,
		header:    newPartHeaderConsumer(conf),
	}
}

func (pc *partConsumer) Consume(c cursor.Cursor) error {
	if pc.part == nil {
		if err := pc.header.Consume(c); err != nil {
			return err
		}
		if !pc.header.IsFinished() {
			return nil
		}
		if err := pc.start(); err != nil {
			return err
		}
	}
	if pc.nested != nil && !pc.nested.IsFinished() {
		if err := pc.nested.Consume(c); err != nil {
			return err
		}
		if !pc.nested.IsFinished() {
			return nil
		}
	}
	return pc.content.Consume(c)
}

func (pc *partConsumer) start() error {
	header := pc.header.header
	pc.part = &Part{header: header, body: newBody(pc.conf.Allocator)}

	ct := header.ContentType()
	if ct.Is("multipart", "*") {
		token := ct.Param("boundary")
		if token == "" {
			return fmt.Errorf("%w: missing boundary parameter in part", ErrInvalidBoundary)
		}
		series := &PartSeries{}
		pc.part.body.parts = series
		pc.nested = newSeriesConsumer(pc.conf, token, series)
		pc.content = newContentConsumer(pc.conf, nil, pc.delimiter)
		return nil
	}
	pc.content = newContentConsumer(pc.conf, pc.part.body, pc.delimiter)
	return nil
}

func (pc *partConsumer) IsFinished() bool {
	return pc.content != nil && pc.content.IsFinished()
}

const (
	seriesStateBoundary int8 = iota
	seriesStatePart
	seriesStateDone
)

// seriesConsumer reads boundary, part, boundary, ... up to and including
// the final "--" of the closing delimiter.
type seriesConsumer struct {
	conf      *Config
	delimiter []byte
	series    *PartSeries

	state    int8
	first    bool
	boundary *boundaryConsumer
	part     *partConsumer
}

func newSeriesConsumer(conf *Config, token string, series *PartSeries) *seriesConsumer {
	return &seriesConsumer{
		conf:      conf,
		delimiter: newDelimiter(token),
		series:    series,
		first:     true,
	}
}

func (sc *seriesConsumer) Consume(c cursor.Cursor) error {
	for {
		switch sc.state {
		case seriesStateBoundary:
			if sc.boundary == nil {
				sc.boundary = newBoundaryConsumer(sc.conf, sc.delimiter, sc.first)
				sc.first = false
			}
			if err := sc.boundary.Consume(c); err != nil {
				return err
			}
			if !sc.boundary.IsFinished() {
				return nil
			}
			last := sc.boundary.last
			sc.boundary = nil
			if last {
				sc.state = seriesStateDone
				continue
			}
			sc.part = newPartConsumer(sc.conf, sc.delimiter)
			sc.state = seriesStatePart
		case seriesStatePart:
			if err := sc.part.Consume(c); err != nil {
				return err
			}
			if !sc.part.IsFinished() {
				return nil
			}
			sc.series.add(sc.part.part)
			sc.part = nil
			sc.state = seriesStateBoundary
		default:
			return nil
		}
	}
}

func (sc *seriesConsumer) IsFinished() bool {
	return sc.state == seriesStateDone
}

// multipartConsumer is the body consumer of a multipart message. It
// never reads more than limit bytes, and when the limit is the declared
// Content-Length it also drains the epilogue after the closing delimiter.
type multipartConsumer struct {
	conf     *Config
	body     *Body
	limit    int64
	declared bool

	counter  *cursor.Counter
	series   *seriesConsumer
	epilogue *fixedConsumer
	finished bool
}

func newMultipartConsumer(conf *Config, body *Body, token string, length int64) *multipartConsumer {
	mc := &multipartConsumer{
		conf:     conf,
		body:     body,
		limit:    length,
		declared: length >= 0,
	}
	if !mc.declared {
		mc.limit = conf.MaxMultipartSize
	}
	body.parts = &PartSeries{}
	mc.series = newSeriesConsumer(conf, token, body.parts)
	return mc
}

func (mc *multipartConsumer) Consume(c cursor.Cursor) error {
	if mc.finished {
		return nil
	}
	if mc.counter == nil {
		mc.counter = cursor.NewCounter(c, mc.limit)
	}
	if !mc.series.IsFinished() {
		if err := mc.series.Consume(mc.counter); err != nil {
			return err
		}
		if !mc.series.IsFinished() {
			return nil
		}
		if mc.declared && mc.counter.Remaining() > 0 {
			mc.epilogue = newFixedConsumer(mc.conf, nil, mc.counter.Remaining())
		}
	}
	if mc.epilogue != nil {
		if err := mc.epilogue.Consume(mc.counter); err != nil {
			return err
		}
		if !mc.epilogue.IsFinished() {
			return nil
		}
	}
	mc.finished = true
	return nil
}

func (mc *multipartConsumer) IsFinished() bool {
	return mc.finished
}

func (mc *multipartConsumer) Body() *Body {
	return mc.body
}
