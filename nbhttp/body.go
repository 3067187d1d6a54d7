// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"io"
	"sync"

	"github.com/lesismal/nbframe/mempool"
)

var (
	bodyReaderPool = sync.Pool{
		New: func() interface{} {
			return &BodyReader{}
		},
	}
)

// Body is a decoded message body: either plain content, or for a
// multipart message the series of its parts.
type Body struct {
	allocator mempool.Allocator
	buffer    []byte
	parts     *PartSeries
	trailer   *Header
}

func newBody(allocator mempool.Allocator) *Body {
	return &Body{allocator: allocator}
}

func (b *Body) reserve(size int) {
	if b.buffer == nil && size > 0 {
		b.buffer = b.allocator.Malloc(size)[:0]
	}
}

func (b *Body) append(data []byte) {
	if len(data) > 0 {
		b.buffer = b.allocator.Append(b.buffer, data...)
	}
}

// Content returns the decoded bytes, nil for a multipart body.
// The slice is owned by the Body until TakeOver or Release.
func (b *Body) Content() []byte {
	return b.buffer
}

// String .
func (b *Body) String() string {
	return string(b.buffer)
}

// Len returns the number of content bytes.
func (b *Body) Len() int {
	return len(b.buffer)
}

// IsMultipart .
func (b *Body) IsMultipart() bool {
	return b.parts != nil
}

// Parts returns the part series of a multipart body, nil otherwise.
func (b *Body) Parts() *PartSeries {
	return b.parts
}

// Part returns the named part of a multipart body.
func (b *Body) Part(name string) *Part {
	if b.parts == nil {
		return nil
	}
	return b.parts.Get(name)
}

// PartAt returns the i-th part of a multipart body.
func (b *Body) PartAt(i int) *Part {
	if b.parts == nil {
		return nil
	}
	return b.parts.At(i)
}

// Trailer returns the trailer fields of a chunked body, if any.
func (b *Body) Trailer() *Header {
	return b.trailer
}

// Reader returns a reader over the content.
func (b *Body) Reader() *BodyReader {
	return NewBodyReader(b.buffer)
}

// TakeOver returns the content, which is no longer released with the Body.
func (b *Body) TakeOver() []byte {
	buf := b.buffer
	b.buffer = nil
	return buf
}

// Release returns the content buffers of the Body and of its parts to
// the allocator. The Body must not be used afterwards.
func (b *Body) Release() {
	if b.buffer != nil {
		b.allocator.Free(b.buffer)
		b.buffer = nil
	}
	if b.parts != nil {
		for _, p := range b.parts.list {
			p.body.Release()
		}
	}
}

// Part is one part of a multipart body.
type Part struct {
	header *Header
	body   *Body
}

// Header .
func (p *Part) Header() *Header {
	return p.header
}

// Body .
func (p *Part) Body() *Body {
	return p.body
}

// Content .
func (p *Part) Content() []byte {
	return p.body.Content()
}

// Name returns the name parameter of the Content-Disposition.
func (p *Part) Name() string {
	return p.header.Disposition().Name
}

// FileName returns the filename parameter of the Content-Disposition.
func (p *Part) FileName() string {
	return p.header.Disposition().FileName
}

// IsFile reports whether the part is a file upload.
func (p *Part) IsFile() bool {
	return p.header.Disposition().IsFile()
}

// ContentType .
func (p *Part) ContentType() ContentType {
	return p.header.ContentType()
}

// PartSeries is the ordered list of parts of a multipart body, with
// named parts indexed by name. A name sent twice refers to the last part.
type PartSeries struct {
	list  []*Part
	index map[string]*Part
}

func (s *PartSeries) add(p *Part) {
	s.list = append(s.list, p)
	if name := p.Name(); name != "" {
		if s.index == nil {
			s.index = map[string]*Part{}
		}
		s.index[name] = p
	}
}

// Len .
func (s *PartSeries) Len() int {
	return len(s.list)
}

// At returns the i-th part, or nil.
func (s *PartSeries) At(i int) *Part {
	if i < 0 || i >= len(s.list) {
		return nil
	}
	return s.list[i]
}

// Get returns the named part, or nil.
func (s *PartSeries) Get(name string) *Part {
	return s.index[name]
}

// All returns the parts in arrival order.
func (s *PartSeries) All() []*Part {
	return s.list
}

// BodyReader .
type BodyReader struct {
	index  int
	buffer []byte
}

// Read implements io.Reader.
func (br *BodyReader) Read(p []byte) (int, error) {
	need := len(p)
	available := len(br.buffer) - br.index
	if available <= 0 {
		return 0, io.EOF
	}
	if available >= need {
		copy(p, br.buffer[br.index:br.index+need])
		br.index += need
		return need, nil
	}
	copy(p[:available], br.buffer[br.index:])
	br.index += available
	return available, io.EOF
}

// Close implements io.Closer. The underlying buffer stays with its Body.
func (br *BodyReader) Close() error {
	br.buffer = nil
	br.index = 0
	bodyReaderPool.Put(br)
	return nil
}

// NewBodyReader creates a BodyReader over data without copying it.
func NewBodyReader(data []byte) *BodyReader {
	br := bodyReaderPool.Get().(*BodyReader)
	br.buffer = data
	br.index = 0
	return br
}
