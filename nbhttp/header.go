// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	contentLengthHeader      = "content-length"
	contentTypeHeader        = "content-type"
	contentDispositionHeader = "content-disposition"
	transferEncodingHeader   = "transfer-encoding"
	expectHeader             = "expect"
	cookieHeader             = "cookie"
	acceptLanguageHeader     = "accept-language"
)

type headerEntry struct {
	name   string
	values []string
}

// Header is a parsed header block. Names are matched case-insensitively,
// every value is kept in arrival order. The headers that decide how a
// body is framed are also parsed into typed fields as they arrive.
type Header struct {
	entries map[string]*headerEntry
	order   []*headerEntry

	contentLength    int64
	contentType      ContentType
	disposition      Disposition
	transferEncoding []string
	expectContinue   bool
	cookies          map[string]*http.Cookie
	languages        []string
}

func newHeader() *Header {
	h := &Header{}
	h.init()
	return h
}

func (h *Header) init() {
	h.contentLength = -1
}

func (h *Header) add(name, value string) {
	key := strings.ToLower(name)
	switch key {
	case contentLengthHeader:
		h.contentLength = parseContentLength(value)
	case contentTypeHeader:
		if ct, ok := parseContentType(value); ok {
			h.contentType = ct
		}
	case contentDispositionHeader:
		if d, ok := parseDisposition(value); ok {
			h.disposition = d
		}
	case transferEncodingHeader:
		h.transferEncoding = append(h.transferEncoding, parseTransferEncoding(value)...)
	case expectHeader:
		h.expectContinue = strings.EqualFold(strings.TrimSpace(value), "100-continue")
	case cookieHeader:
		for _, cookie := range parseCookies(value) {
			if h.cookies == nil {
				h.cookies = map[string]*http.Cookie{}
			}
			h.cookies[cookie.Name] = cookie
		}
	case acceptLanguageHeader:
		h.languages = parseLanguages(value)
	}

	if h.entries == nil {
		h.entries = map[string]*headerEntry{}
	}
	entry, ok := h.entries[key]
	if !ok {
		entry = &headerEntry{name: name}
		h.entries[key] = entry
		h.order = append(h.order, entry)
	}
	entry.values = append(entry.values, value)
}

// Get returns the first value of the named header, or "".
func (h *Header) Get(name string) string {
	if entry, ok := h.entries[strings.ToLower(name)]; ok {
		return entry.values[0]
	}
	return ""
}

// Values returns every value of the named header in arrival order.
func (h *Header) Values(name string) []string {
	if entry, ok := h.entries[strings.ToLower(name)]; ok {
		return entry.values
	}
	return nil
}

// Has .
func (h *Header) Has(name string) bool {
	_, ok := h.entries[strings.ToLower(name)]
	return ok
}

// Names returns the header names as first seen, in arrival order.
func (h *Header) Names() []string {
	names := make([]string, len(h.order))
	for i, entry := range h.order {
		names[i] = entry.name
	}
	return names
}

// Len returns the number of distinct header names.
func (h *Header) Len() int {
	return len(h.order)
}

// ContentLength returns -1 when the header is absent or not a number.
func (h *Header) ContentLength() int64 {
	return h.contentLength
}

// ContentType .
func (h *Header) ContentType() ContentType {
	return h.contentType
}

// Disposition .
func (h *Header) Disposition() Disposition {
	return h.disposition
}

// TransferEncoding returns the lower case transfer codings in order.
func (h *Header) TransferEncoding() []string {
	return h.transferEncoding
}

// IsChunked reports whether chunked is the final transfer coding.
func (h *Header) IsChunked() bool {
	n := len(h.transferEncoding)
	return n > 0 && h.transferEncoding[n-1] == "chunked"
}

// IsContinue reports whether the sender expects 100-continue.
func (h *Header) IsContinue() bool {
	return h.expectContinue
}

// Cookie returns the last cookie sent with the given name.
func (h *Header) Cookie(name string) *http.Cookie {
	return h.cookies[name]
}

// Cookies .
func (h *Header) Cookies() map[string]*http.Cookie {
	return h.cookies
}

// Languages returns the accepted languages, most preferred first.
func (h *Header) Languages() []string {
	return h.languages
}

// Std converts the header to a net/http Header with canonical keys.
func (h *Header) Std() http.Header {
	std := make(http.Header, len(h.order))
	for _, entry := range h.order {
		key := http.CanonicalHeaderKey(entry.name)
		std[key] = append(std[key], entry.values...)
	}
	return std
}

// RequestHeader is the header block of a request, request line included.
type RequestHeader struct {
	Header

	method string
	target string
	proto  string
	major  int
	minor  int
	url    *url.URL
}

// Method .
func (r *RequestHeader) Method() string {
	return r.method
}

// Target returns the raw request target.
func (r *RequestHeader) Target() string {
	return r.target
}

// URL .
func (r *RequestHeader) URL() *url.URL {
	return r.url
}

// Path .
func (r *RequestHeader) Path() string {
	return r.url.Path
}

// Query .
func (r *RequestHeader) Query() url.Values {
	return r.url.Query()
}

// Proto .
func (r *RequestHeader) Proto() string {
	return r.proto
}

// Major .
func (r *RequestHeader) Major() int {
	return r.major
}

// Minor .
func (r *RequestHeader) Minor() int {
	return r.minor
}
