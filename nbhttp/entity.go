// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"github.com/lesismal/nbframe/cursor"
	"github.com/lesismal/nbframe/logging"
)

var continueResponse = []byte("HTTP/1.1 100 Continue\r\n\r\n")

const (
	entityStateHeader int8 = iota
	entityStateBody
	entityStateDone
)

type flusher interface {
	Flush() error
}

// Entity reads one request: its header block, then its body. Bytes of
// the next request are left in the cursor.
type Entity struct {
	conf  Config
	state int8

	header *headerConsumer
	body   BodyConsumer
}

// NewEntity .
func NewEntity(conf Config) *Entity {
	conf = conf.withDefaults()
	e := &Entity{conf: conf}
	e.header = newRequestConsumer(&e.conf)
	return e
}

// Consume implements Consumer.
func (e *Entity) Consume(c cursor.Cursor) error {
	for {
		switch e.state {
		case entityStateHeader:
			if err := e.header.Consume(c); err != nil {
				return err
			}
			if !e.header.IsFinished() {
				return nil
			}
			request := e.header.request
			if request.IsContinue() {
				e.sendContinue()
			}
			body, err := newBodyConsumer(&request.Header, &e.conf)
			if err != nil {
				return err
			}
			e.body = body
			e.state = entityStateBody
		case entityStateBody:
			if err := e.body.Consume(c); err != nil {
				return err
			}
			if !e.body.IsFinished() {
				return nil
			}
			e.state = entityStateDone
		default:
			return nil
		}
	}
}

func (e *Entity) sendContinue() {
	w := e.conf.Writer
	if w == nil {
		return
	}
	if _, err := w.Write(continueResponse); err != nil {
		logging.Warn("nbhttp: send 100-continue failed: %v", err)
		return
	}
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			logging.Warn("nbhttp: flush 100-continue failed: %v", err)
		}
	}
}

// IsHeaderFinished reports whether the header block has been read, the
// body may still be on its way.
func (e *Entity) IsHeaderFinished() bool {
	return e.state > entityStateHeader
}

// IsFinished implements Consumer.
func (e *Entity) IsFinished() bool {
	return e.state == entityStateDone
}

// Header returns the request header once IsHeaderFinished.
func (e *Entity) Header() *RequestHeader {
	if !e.IsHeaderFinished() {
		return nil
	}
	return e.header.request
}

// Body returns the request body once IsFinished.
func (e *Entity) Body() *Body {
	if !e.IsFinished() {
		return nil
	}
	return e.body.Body()
}

// Reset prepares the entity for the next request on the same connection.
// Header and Body of the previous request stay valid until Release.
func (e *Entity) Reset() {
	e.header.reset()
	e.body = nil
	e.state = entityStateHeader
}

// Release returns the buffers held by the entity to the allocator.
func (e *Entity) Release() {
	e.header.release()
	if e.body != nil {
		e.body.Body().Release()
	}
}
