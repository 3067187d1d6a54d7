// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lesismal/nbframe/logging"
	"github.com/lesismal/nbframe/nbhttp"
	"github.com/lesismal/nbframe/taskpool"
)

var (
	addr          = flag.String("addr", "localhost:8888", "listen address")
	maxHeaderSize = flag.Int("max-header-size", nbhttp.DefaultMaxHeaderSize, "max size of a request header block")
	maxMultipart  = flag.Int64("max-multipart-size", nbhttp.DefaultMaxMultipartSize, "max size of a multipart body without Content-Length")
	idleTimeout   = flag.Duration("idle-timeout", time.Minute, "keep-alive idle timeout")
	conns         = flag.Int("conns", 1024, "connections served on their own goroutine before queueing")
	workers       = flag.Int("workers", 64, "workers serving queued connections")
	logLevel      = flag.Int("log-level", logging.LevelInfo, "log level, 0 logs everything and 5 nothing")
)

func main() {
	flag.Parse()
	logging.SetLevel(*logLevel)

	pool := taskpool.NewMixedPool(*conns, *workers, *workers)
	svr, err := NewServer(nbhttp.Config{
		MaxHeaderSize:    *maxHeaderSize,
		MaxMultipartSize: *maxMultipart,
	}, newRouter(), pool)
	if err != nil {
		logging.Error("nbframe-server: init metrics failed: %v", err)
		os.Exit(1)
	}
	svr.IdleTimeout = *idleTimeout

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logging.Error("nbframe-server: listen failed: %v", err)
		os.Exit(1)
	}
	logging.Info("nbframe-server: listening on %v", ln.Addr())

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
		<-interrupt
		logging.Info("nbframe-server: shutting down")
		svr.Shutdown()
	}()

	if err := svr.Serve(ln); err != nil {
		logging.Error("nbframe-server: serve failed: %v", err)
		os.Exit(1)
	}
}
