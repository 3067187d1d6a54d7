// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/lesismal/nbframe/cursor"
	"github.com/lesismal/nbframe/logging"
	"github.com/lesismal/nbframe/mempool"
	"github.com/lesismal/nbframe/nbhttp"
	"github.com/lesismal/nbframe/taskpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/lesismal/nbframe/cmd/nbframe-server"

// Server serves HTTP/1.x requests decoded by nbhttp.Entity, one
// goroutine per connection.
type Server struct {
	Config         nbhttp.Config
	ReadBufferSize int
	IdleTimeout    time.Duration

	router *httprouter.Router
	pool   *taskpool.MixedPool

	mux      sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}

	requests  metric.Int64Counter
	failures  metric.Int64Counter
	bodyBytes metric.Int64Counter
}

// NewServer .
func NewServer(conf nbhttp.Config, router *httprouter.Router, pool *taskpool.MixedPool) (*Server, error) {
	meter := otel.Meter(meterName)
	requests, err := meter.Int64Counter("nbframe.server.requests",
		metric.WithDescription("The number of requests served by method and status"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("nbframe.server.failures",
		metric.WithDescription("The number of connections closed on a decoding error"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	bodyBytes, err := meter.Int64Counter("nbframe.server.body_bytes",
		metric.WithDescription("The number of decoded request body bytes"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	return &Server{
		Config:         conf,
		ReadBufferSize: 4096,
		IdleTimeout:    time.Minute,
		router:         router,
		pool:           pool,
		conns:          map[net.Conn]struct{}{},
		requests:       requests,
		failures:       failures,
		bodyBytes:      bodyBytes,
	}, nil
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mux.Lock()
	s.listener = ln
	s.mux.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logging.Warn("nbframe-server: accept failed: %v", err)
				time.Sleep(time.Millisecond * 10)
				continue
			}
			return err
		}

		s.mux.Lock()
		s.conns[conn] = struct{}{}
		s.mux.Unlock()

		err = s.pool.Go(func() {
			defer s.closeConn(conn)
			s.serveConn(conn)
		})
		if err != nil {
			s.closeConn(conn)
			return nil
		}
	}
}

// Shutdown stops accepting and closes every open connection.
func (s *Server) Shutdown() {
	s.mux.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mux.Unlock()
	s.pool.Stop()
}

func (s *Server) closeConn(conn net.Conn) {
	s.mux.Lock()
	delete(s.conns, conn)
	s.mux.Unlock()
	conn.Close()
}

func (s *Server) serveConn(conn net.Conn) {
	bw := bufio.NewWriter(conn)
	conf := s.Config
	conf.Writer = bw

	e := nbhttp.NewEntity(conf)
	defer e.Release()

	buf := cursor.NewBuffer()
	readBuf := mempool.Malloc(s.ReadBufferSize)
	defer mempool.Free(readBuf)

	var (
		handle httprouter.Handle
		params httprouter.Params
		routed bool
	)
	for {
		if s.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		}
		n, readErr := conn.Read(readBuf)
		if n > 0 {
			buf.Append(readBuf[:n])
		}
		if readErr != nil {
			buf.Close()
		}

		for {
			if err := e.Consume(buf); err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.fail(bw, conn, err)
				return
			}
			if e.IsHeaderFinished() && !routed {
				routed = true
				h := e.Header()
				handle, params, _ = s.router.Lookup(h.Method(), h.Path())
				if handle == nil && !e.IsFinished() {
					// no need to read a body nobody will handle
					res := newResponse()
					res.close = true
					http.NotFound(res, nil)
					s.record(h.Method(), res.statusCode)
					res.flush(bw)
					return
				}
			}
			if !e.IsFinished() {
				break
			}

			keepAlive := s.serve(bw, conn, e, handle, params)
			e.Body().Release()
			e.Reset()
			handle, params, routed = nil, nil, false
			if !keepAlive {
				return
			}
		}

		if readErr != nil {
			if readErr != io.EOF && !errors.Is(readErr, net.ErrClosed) {
				logging.Debug("nbframe-server: read from %v failed: %v", conn.RemoteAddr(), readErr)
			}
			return
		}
	}
}

func (s *Server) serve(bw *bufio.Writer, conn net.Conn, e *nbhttp.Entity, handle httprouter.Handle, params httprouter.Params) bool {
	h := e.Header()
	body := e.Body()
	s.bodyBytes.Add(context.Background(), int64(body.Len()))

	keepAlive := h.Major() == 1 && h.Minor() >= 1
	if connection := h.Get("Connection"); connection != "" {
		switch strings.ToLower(connection) {
		case "close":
			keepAlive = false
		case "keep-alive":
			keepAlive = true
		}
	}

	res := newResponse()
	res.close = !keepAlive
	if handle == nil {
		http.NotFound(res, nil)
	} else {
		req := &http.Request{
			Method:        h.Method(),
			URL:           h.URL(),
			Proto:         h.Proto(),
			ProtoMajor:    h.Major(),
			ProtoMinor:    h.Minor(),
			Header:        h.Std(),
			Body:          body.Reader(),
			ContentLength: int64(body.Len()),
			Host:          h.Get("Host"),
			RemoteAddr:    conn.RemoteAddr().String(),
			RequestURI:    h.Target(),
		}
		req = req.WithContext(withEntity(context.Background(), e))
		handle(res, req, params)
		req.Body.Close()
	}
	s.record(h.Method(), res.statusCode)

	if err := res.flush(bw); err != nil {
		logging.Debug("nbframe-server: write to %v failed: %v", conn.RemoteAddr(), err)
		return false
	}
	return keepAlive
}

func (s *Server) fail(bw *bufio.Writer, conn net.Conn, err error) {
	kind := "other"
	switch {
	case errors.Is(err, nbhttp.ErrTooLong):
		kind = "too_long"
	case errors.Is(err, cursor.ErrLimitReached):
		kind = "limit_reached"
	case errors.Is(err, nbhttp.ErrInvalidBoundary):
		kind = "invalid_boundary"
	case errors.Is(err, nbhttp.ErrInvalidChunkSize), errors.Is(err, nbhttp.ErrLFExpected):
		kind = "invalid_chunk"
	}
	s.failures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("error", kind)))
	logging.Info("nbframe-server: closing %v: %v", conn.RemoteAddr(), err)

	res := newResponse()
	res.close = true
	status := http.StatusBadRequest
	if kind == "too_long" {
		status = http.StatusRequestHeaderFieldsTooLarge
	}
	http.Error(res, http.StatusText(status), status)
	res.flush(bw)
}

func (s *Server) record(method string, status int) {
	s.requests.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", status),
	))
}
