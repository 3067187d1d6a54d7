// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"github.com/lesismal/nbframe/cursor"
)

// maxReserve bounds the buffer reserved up front for a declared length.
const maxReserve = 64 * 1024

// fixedConsumer reads exactly length bytes. A nil body discards them.
type fixedConsumer struct {
	updateDriver

	body      *Body
	remaining int64
}

func newFixedConsumer(conf *Config, body *Body, length int64) *fixedConsumer {
	fc := &fixedConsumer{body: body, remaining: length}
	fc.init(conf.Allocator, conf.ScratchSize)
	if body != nil {
		reserve := length
		if reserve > maxReserve {
			reserve = maxReserve
		}
		body.reserve(int(reserve))
	}
	return fc
}

func (fc *fixedConsumer) Consume(c cursor.Cursor) error {
	if fc.remaining <= 0 {
		fc.finished = true
		return nil
	}
	return fc.consume(c, fc)
}

func (fc *fixedConsumer) IsFinished() bool {
	return fc.finished
}

func (fc *fixedConsumer) Body() *Body {
	return fc.body
}

// Update implements ChunkUpdater.
func (fc *fixedConsumer) Update(data []byte) (int, bool, error) {
	n := len(data)
	if int64(n) > fc.remaining {
		n = int(fc.remaining)
	}
	if fc.body != nil {
		fc.body.append(data[:n])
	}
	fc.remaining -= int64(n)
	if fc.remaining == 0 {
		return len(data) - n, true, nil
	}
	return 0, false, nil
}
