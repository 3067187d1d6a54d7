// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"fmt"
)

// BodyConsumer is a Consumer that decodes a message body.
type BodyConsumer interface {
	Consumer
	Body() *Body
}

// NewBodyConsumer picks the body decoder for a parsed header block:
// multipart first, then chunked, then a fixed Content-Length. Anything
// else has no body.
func NewBodyConsumer(h *Header, conf Config) (BodyConsumer, error) {
	conf = conf.withDefaults()
	return newBodyConsumer(h, &conf)
}

func newBodyConsumer(h *Header, conf *Config) (BodyConsumer, error) {
	body := newBody(conf.Allocator)

	if ct := h.ContentType(); ct.Is("multipart", "*") {
		token := ct.Param("boundary")
		if token == "" {
			return nil, fmt.Errorf("%w: missing boundary parameter", ErrInvalidBoundary)
		}
		return newMultipartConsumer(conf, body, token, h.ContentLength()), nil
	}
	if h.IsChunked() {
		return newChunkedConsumer(conf, body), nil
	}
	if length := h.ContentLength(); length > 0 {
		return newFixedConsumer(conf, body, length), nil
	}
	return &emptyConsumer{body: body}, nil
}
