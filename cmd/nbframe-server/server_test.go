// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/lesismal/nbframe/nbhttp"
	"github.com/lesismal/nbframe/taskpool"
)

func startServer(t *testing.T, conf nbhttp.Config) string {
	t.Helper()
	svr, err := NewServer(conf, newRouter(), taskpool.NewMixedPool(16, 2, 2))
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svr.Shutdown)
	t.Cleanup(func() { ln.Close() })
	go svr.Serve(ln)
	return ln.Addr().String()
}

func readResponse(t *testing.T, br *bufio.Reader) (int, string) {
	t.Helper()
	res, err := http.ReadResponse(br, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	return res.StatusCode, string(data)
}

func TestServerPipeline(t *testing.T) {
	addr := startServer(t, nbhttp.Config{})
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	mw.WriteField("title", "holiday")
	fw, _ := mw.CreateFormFile("photo", "beach.jpg")
	fw.Write([]byte("not really a jpeg"))
	mw.Close()

	requests := "POST /echo HTTP/1.1\r\nHost: localhost\r\nContent-Type: text/plain\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n" +
		"GET /hello/gopher HTTP/1.1\r\nHost: localhost\r\nAccept-Language: fr-CH, fr;q=0.9, en;q=0.8\r\n\r\n" +
		"POST /upload HTTP/1.1\r\nHost: localhost\r\nContent-Type: " + mw.FormDataContentType() + "\r\n" +
		"Content-Length: " + strconv.Itoa(form.Len()) + "\r\n\r\n" + form.String() +
		"GET /missing HTTP/1.1\r\nHost: localhost\r\nConnection: close\r\n\r\n"
	// split the writes so that requests straddle reads
	for i := 0; i < len(requests); i += 7 {
		end := i + 7
		if end > len(requests) {
			end = len(requests)
		}
		if _, err := conn.Write([]byte(requests[i:end])); err != nil {
			t.Fatal(err)
		}
	}

	br := bufio.NewReader(conn)
	if status, body := readResponse(t, br); status != http.StatusOK || body != "hello" {
		t.Fatalf("echo: %v %q", status, body)
	}
	if status, body := readResponse(t, br); status != http.StatusOK || body != "hello, gopher (fr-CH)\n" {
		t.Fatalf("hello: %v %q", status, body)
	}
	status, body := readResponse(t, br)
	if status != http.StatusOK || !strings.Contains(body, `field name="title" value="holiday"`) ||
		!strings.Contains(body, `file "beach.jpg" name="photo" size=17`) {
		t.Fatalf("upload: %v %q", status, body)
	}
	if status, _ := readResponse(t, br); status != http.StatusNotFound {
		t.Fatalf("missing: %v", status)
	}
	if _, err := br.ReadByte(); err != io.EOF {
		t.Fatalf("connection left open: %v", err)
	}
}

func TestServerContinue(t *testing.T) {
	addr := startServer(t, nbhttp.Config{})
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.Write([]byte("PUT /echo HTTP/1.1\r\nHost: localhost\r\nExpect: 100-continue\r\nContent-Length: 4\r\n\r\n"))
	br := bufio.NewReader(conn)
	line, err := br.ReadString('\n')
	if err != nil || line != "HTTP/1.1 100 Continue\r\n" {
		t.Fatalf("interim response %q, %v", line, err)
	}
	if line, _ = br.ReadString('\n'); line != "\r\n" {
		t.Fatalf("interim response end %q", line)
	}
	conn.Write([]byte("data"))
	if status, body := readResponse(t, br); status != http.StatusOK || body != "data" {
		t.Fatalf("echo: %v %q", status, body)
	}
}

func TestServerBadRequest(t *testing.T) {
	addr := startServer(t, nbhttp.Config{MaxHeaderSize: 128})
	for request, want := range map[string]int{
		"GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("x", 256) + "\r\n\r\n":                       http.StatusRequestHeaderFieldsTooLarge,
		"POST /upload HTTP/1.1\r\nContent-Type: multipart/form-data\r\nContent-Length: 4\r\n\r\n": http.StatusBadRequest,
		"POST /echo HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\nxyz\r\n":                        http.StatusBadRequest,
	} {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatal(err)
		}
		conn.Write([]byte(request))
		if status, _ := readResponse(t, bufio.NewReader(conn)); status != want {
			t.Fatalf("%q: %v != %v", request, status, want)
		}
		conn.Close()
	}
}
