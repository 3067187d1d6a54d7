// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"net/http"
	"strconv"

	"github.com/lesismal/nbframe/logging"
	"github.com/lesismal/nbframe/mempool"
)

// response buffers a handler's output and writes it as a single
// Content-Length framed message.
type response struct {
	header     http.Header
	statusCode int
	body       []byte
	close      bool
}

func newResponse() *response {
	return &response{header: http.Header{}}
}

// Header implements http.ResponseWriter.
func (res *response) Header() http.Header {
	return res.header
}

// WriteHeader implements http.ResponseWriter.
func (res *response) WriteHeader(statusCode int) {
	if res.statusCode == 0 && http.StatusText(statusCode) != "" {
		res.statusCode = statusCode
	}
}

// Write implements http.ResponseWriter.
func (res *response) Write(data []byte) (int, error) {
	res.WriteHeader(http.StatusOK)
	if res.body == nil {
		res.body = mempool.Malloc(len(data))[:0]
	}
	res.body = mempool.Append(res.body, data...)
	return len(data), nil
}

func (res *response) flush(w *bufio.Writer) error {
	res.WriteHeader(http.StatusOK)
	defer func() {
		if res.body != nil {
			mempool.Free(res.body)
			res.body = nil
		}
	}()

	if cl := res.header.Get("Content-Length"); cl != "" {
		logging.Debug("nbframe-server: drop handler Content-Length %q", cl)
	}
	res.header.Set("Content-Length", strconv.Itoa(len(res.body)))
	if res.header.Get("Content-Type") == "" && len(res.body) > 0 {
		res.header.Set("Content-Type", http.DetectContentType(res.body))
	}
	if res.close {
		res.header.Set("Connection", "close")
	}

	w.WriteString("HTTP/1.1 ")
	w.WriteString(strconv.Itoa(res.statusCode))
	w.WriteString(" ")
	w.WriteString(http.StatusText(res.statusCode))
	w.WriteString("\r\n")
	if err := res.header.Write(w); err != nil {
		return err
	}
	w.WriteString("\r\n")
	w.Write(res.body)
	return w.Flush()
}
