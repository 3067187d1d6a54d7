// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"io"

	"github.com/lesismal/nbframe/mempool"
)

const (
	// DefaultMaxHeaderSize .
	DefaultMaxHeaderSize = 64 * 1024

	// DefaultHeaderChunkSize .
	DefaultHeaderChunkSize = 1024

	// DefaultScratchSize .
	DefaultScratchSize = 2048

	// DefaultMaxMultipartSize .
	DefaultMaxMultipartSize int64 = 64 * 1024 * 1024
)

// Config .
type Config struct {
	// MaxHeaderSize caps a header block, request line included. Blocks
	// above it fail with ErrTooLong. It's set to 64k by default.
	MaxHeaderSize int

	// HeaderChunkSize is the step a header scan buffer grows by,
	// it's set to 1k by default.
	HeaderChunkSize int

	// ScratchSize is the size of the array body decoders read into,
	// it's set to 2k by default.
	ScratchSize int

	// MaxMultipartSize caps a multipart body that declares no
	// Content-Length, it's set to 64M by default.
	MaxMultipartSize int64

	// Allocator provides every buffer, mempool.DefaultMemPool by default.
	Allocator mempool.Allocator

	// Writer receives the 100-continue interim response. When it's nil
	// no interim response is sent.
	Writer io.Writer
}

func (conf Config) withDefaults() Config {
	if conf.MaxHeaderSize <= 0 {
		conf.MaxHeaderSize = DefaultMaxHeaderSize
	}
	if conf.HeaderChunkSize <= 0 {
		conf.HeaderChunkSize = DefaultHeaderChunkSize
	}
	if conf.ScratchSize <= 0 {
		conf.ScratchSize = DefaultScratchSize
	}
	if conf.MaxMultipartSize <= 0 {
		conf.MaxMultipartSize = DefaultMaxMultipartSize
	}
	if conf.Allocator == nil {
		conf.Allocator = mempool.DefaultMemPool
	}
	return conf
}
