// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lesismal/nbframe/cursor"
	"github.com/lesismal/nbframe/logging"
)

var headerTerminal = []byte("\r\n\r\n")

// headerConsumer reads a header block up to and including CRLFCRLF.
type headerConsumer struct {
	scanDriver

	header  *Header
	request *RequestHeader

	seek int
}

func newHeaderConsumer(conf *Config) *headerConsumer {
	hc := &headerConsumer{header: newHeader()}
	hc.init(conf.Allocator, conf.HeaderChunkSize, conf.MaxHeaderSize)
	return hc
}

func newRequestConsumer(conf *Config) *headerConsumer {
	rh := &RequestHeader{}
	rh.Header.init()
	hc := &headerConsumer{header: &rh.Header, request: rh}
	hc.init(conf.Allocator, conf.HeaderChunkSize, conf.MaxHeaderSize)
	return hc
}

// newPartHeaderConsumer reads the header block of a multipart body part.
// The CRLF ending the boundary line counts towards the terminal token,
// so a part without headers is a single CRLF.
func newPartHeaderConsumer(conf *Config) *headerConsumer {
	hc := newHeaderConsumer(conf)
	hc.seek = 2
	return hc
}

// reset prepares a request consumer for the next request on the connection.
func (hc *headerConsumer) reset() {
	hc.clear()
	hc.seek = 0
	rh := &RequestHeader{}
	rh.Header.init()
	hc.header, hc.request = &rh.Header, rh
}

func (hc *headerConsumer) Consume(c cursor.Cursor) error {
	return hc.consume(c, hc)
}

func (hc *headerConsumer) IsFinished() bool {
	return hc.finished
}

// Scan implements FrameScanner.
func (hc *headerConsumer) Scan(data []byte) (int, bool) {
	for i, c := range data {
		if c == headerTerminal[hc.seek] {
			hc.seek++
			if hc.seek == len(headerTerminal) {
				return len(data) - i - 1, true
			}
			continue
		}
		hc.seek = 0
		if c == headerTerminal[0] {
			hc.seek = 1
		}
	}
	return 0, false
}

// Process implements FrameScanner.
func (hc *headerConsumer) Process(frame []byte) error {
	if hc.request != nil {
		n, err := parseRequestLine(hc.request, frame)
		if err != nil {
			return err
		}
		frame = frame[n:]
	}
	parseHeader(hc.header, frame)
	return nil
}

// parseRequestLine parses "METHOD SP target SP HTTP/x.y CRLF" and returns
// the number of bytes it spans. Empty lines before it are skipped.
func parseRequestLine(r *RequestHeader, data []byte) (int, error) {
	pos := 0
	for pos < len(data) && (data[pos] == '\r' || data[pos] == '\n') {
		pos++
	}
	end := bytes.IndexByte(data[pos:], '\n')
	if end < 0 {
		return 0, ErrInvalidRequestLine
	}
	end += pos
	line := string(bytes.TrimRight(data[pos:end], "\r"))

	method, rest, ok := strings.Cut(line, " ")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRequestLine, line)
	}
	rest = strings.TrimLeft(rest, " ")
	target, proto, ok := strings.Cut(rest, " ")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRequestLine, line)
	}
	proto = strings.TrimSpace(proto)

	if !isValidMethod(method) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	for i := 0; i < len(method); i++ {
		if !isToken(method[i]) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
		}
	}
	r.method = strings.ToUpper(method)

	rawurl := target
	justAuthority := r.method == http.MethodConnect && !strings.HasPrefix(rawurl, "/")
	if justAuthority {
		rawurl = "http://" + rawurl
	}
	u, err := url.ParseRequestURI(rawurl)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRequestURI, err)
	}
	if justAuthority {
		u.Scheme = ""
	}
	r.target = target
	r.url = u

	major, minor, ok := http.ParseHTTPVersion(proto)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHTTPVersion, proto)
	}
	r.proto = proto
	r.major = major
	r.minor = minor

	return end + 1, nil
}

// parseHeader tokenizes a header block into h. Values continued on a
// line starting with a space or tab are joined, the line break dropped.
func parseHeader(h *Header, data []byte) {
	pos := 0
	for pos < len(data) {
		for pos < len(data) && (isSpace(data[pos]) || data[pos] == '\r' || data[pos] == '\n') {
			pos++
		}
		if pos >= len(data) {
			break
		}

		start := pos
		for pos < len(data) && data[pos] != ':' && data[pos] != '\r' && data[pos] != '\n' {
			pos++
		}
		name := bytes.TrimRight(data[start:pos], " \t")
		if pos >= len(data) || data[pos] != ':' || len(name) == 0 {
			logging.Debug("nbhttp: skip malformed header line %q", data[start:pos])
			continue
		}
		pos++

		for pos < len(data) && isSpace(data[pos]) {
			pos++
		}

		var folded []byte
		mark := pos
		for {
			for pos < len(data) && data[pos] != '\r' && data[pos] != '\n' {
				pos++
			}
			end := pos
			if pos < len(data) && data[pos] == '\r' {
				pos++
			}
			if pos < len(data) && data[pos] == '\n' {
				pos++
			}
			if pos > end && pos < len(data) && isSpace(data[pos]) {
				folded = append(folded, data[mark:end]...)
				mark = pos
				continue
			}
			if folded != nil {
				folded = append(folded, data[mark:end]...)
				h.add(string(name), string(bytes.TrimRight(folded, " \t")))
			} else {
				h.add(string(name), string(bytes.TrimRight(data[mark:end], " \t")))
			}
			break
		}
	}
}
