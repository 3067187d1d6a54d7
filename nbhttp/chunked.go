// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"fmt"
	"math"

	"github.com/lesismal/nbframe/cursor"
)

const (
	chunkStateSize int8 = iota
	chunkStateExtension
	chunkStateData
	chunkStateDataCR
	chunkStateDataLF
	chunkStateTrailer
)

// chunkedConsumer decodes a chunked transfer-coding. Only chunk data
// reaches the body, trailer fields are kept apart in Body.Trailer.
type chunkedConsumer struct {
	updateDriver

	body  *Body
	limit int
	state int8

	size   int64
	digits int

	trailer []byte
	line    int
}

func newChunkedConsumer(conf *Config, body *Body) *chunkedConsumer {
	cc := &chunkedConsumer{body: body, limit: conf.MaxHeaderSize}
	cc.init(conf.Allocator, conf.ScratchSize)
	return cc
}

func (cc *chunkedConsumer) Consume(c cursor.Cursor) error {
	return cc.consume(c, cc)
}

func (cc *chunkedConsumer) IsFinished() bool {
	return cc.finished
}

func (cc *chunkedConsumer) Body() *Body {
	return cc.body
}

// Update implements ChunkUpdater.
func (cc *chunkedConsumer) Update(data []byte) (int, bool, error) {
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch cc.state {
		case chunkStateSize:
			if v, ok := unhex(c); ok {
				if cc.size > math.MaxInt64>>4 {
					return 0, false, fmt.Errorf("%w: size overflows", ErrInvalidChunkSize)
				}
				cc.size = cc.size<<4 | int64(v)
				cc.digits++
				continue
			}
			if cc.digits == 0 {
				return 0, false, fmt.Errorf("%w: unexpected %q", ErrInvalidChunkSize, c)
			}
			cc.state = chunkStateExtension
			fallthrough
		case chunkStateExtension:
			if c != '\n' {
				continue
			}
			if cc.size > 0 {
				cc.state = chunkStateData
			} else {
				cc.state = chunkStateTrailer
				cc.line = 0
			}
		case chunkStateData:
			n := int64(len(data) - i)
			if n > cc.size {
				n = cc.size
			}
			cc.body.append(data[i : i+int(n)])
			cc.size -= n
			i += int(n) - 1
			if cc.size == 0 {
				cc.state = chunkStateDataCR
			}
		case chunkStateDataCR:
			if c == '\r' {
				cc.state = chunkStateDataLF
				continue
			}
			fallthrough
		case chunkStateDataLF:
			if c != '\n' {
				return 0, false, ErrLFExpected
			}
			cc.state = chunkStateSize
			cc.digits = 0
		case chunkStateTrailer:
			switch c {
			case '\r':
			case '\n':
				if cc.line == 0 {
					return len(data) - i - 1, true, cc.finish()
				}
				cc.line = 0
			default:
				cc.line++
			}
			if cc.line > 0 || len(cc.trailer) > 0 {
				if len(cc.trailer) >= cc.limit {
					return 0, false, ErrTooLong
				}
				cc.trailer = append(cc.trailer, c)
			}
		}
	}
	return 0, false, nil
}

func (cc *chunkedConsumer) finish() error {
	if len(cc.trailer) > 0 {
		cc.body.trailer = newHeader()
		parseHeader(cc.body.trailer, cc.trailer)
		cc.trailer = nil
	}
	return nil
}
