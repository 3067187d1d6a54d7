// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"bytes"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/lesismal/nbframe/cursor"
)

const formBody = "--X\r\n" +
	"Content-Disposition: form-data; name=\"field\"\r\n" +
	"\r\n" +
	"value\r\n" +
	"--X\r\n" +
	"Content-Disposition: form-data; name=\"file\"; filename=\"a.txt\"\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"file content\r\n" +
	"--X--\r\n"

const nextRequest = "GET /next HTTP/1.1\r\n\r\n"

func consumeMultipart(token string, length int64, reads [][]byte) (*multipartConsumer, *cursor.Buffer, error) {
	conf := Config{ScratchSize: 7, HeaderChunkSize: 16}.withDefaults()
	mc := newMultipartConsumer(&conf, newBody(conf.Allocator), token, length)
	buf, err := feed(mc, reads)
	return mc, buf, err
}

func TestMultipartForm(t *testing.T) {
	data := []byte(formBody + nextRequest)
	for name, reads := range fragmentations(data, 100) {
		mc, buf, err := consumeMultipart("X", int64(len(formBody)), reads)
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		if !mc.IsFinished() {
			t.Fatalf("%v: not finished", name)
		}
		body := mc.Body()
		if !body.IsMultipart() || body.Parts().Len() != 2 {
			t.Fatalf("%v: parts %v", name, body.Parts())
		}

		field := body.Part("field")
		if field == nil || string(field.Content()) != "value" || field.IsFile() {
			t.Fatalf("%v: field part %+v", name, field)
		}
		file := body.Part("file")
		if file == nil || string(file.Content()) != "file content" || !file.IsFile() {
			t.Fatalf("%v: file part %+v", name, file)
		}
		if file.FileName() != "a.txt" || !file.ContentType().Is("text", "plain") {
			t.Fatalf("%v: file %q %v", name, file.FileName(), file.ContentType())
		}
		if body.PartAt(0) != field || body.PartAt(1) != file || body.PartAt(2) != nil {
			t.Fatalf("%v: part order", name)
		}
		if s := leftover(buf); s != nextRequest {
			t.Fatalf("%v: leftover %q", name, s)
		}
		body.Release()
	}
}

func TestMultipartUndeclaredLength(t *testing.T) {
	data := []byte(formBody + nextRequest)
	for name, reads := range fragmentations(data, 20) {
		mc, buf, err := consumeMultipart("X", -1, reads)
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		if !mc.IsFinished() || mc.Body().Parts().Len() != 2 {
			t.Fatalf("%v: finished %v", name, mc.IsFinished())
		}
		if s := leftover(buf); s != "\r\n"+nextRequest {
			t.Fatalf("%v: leftover %q", name, s)
		}
	}
}

func TestMultipartFalseDelimiter(t *testing.T) {
	content := "abc\r\n--boundary41\r\n--boundary4\r\r\n--\r\n\r\n--bound"
	data := []byte("--boundary42\r\n\r\n" + content + "\r\n--boundary42--")
	for name, reads := range fragmentations(data, 100) {
		mc, _, err := consumeMultipart("boundary42", int64(len(data)), reads)
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		parts := mc.Body().Parts()
		if parts.Len() != 1 {
			t.Fatalf("%v: %v parts", name, parts.Len())
		}
		if got := string(parts.At(0).Content()); got != content {
			t.Fatalf("%v: content %q != %q", name, got, content)
		}
	}
}

func TestMultipartNested(t *testing.T) {
	data := []byte("--outer\r\n" +
		"Content-Disposition: form-data; name=\"title\"\r\n" +
		"\r\n" +
		"pictures\r\n" +
		"--outer\r\n" +
		"Content-Disposition: form-data; name=\"files\"\r\n" +
		"Content-Type: multipart/mixed; boundary=inner\r\n" +
		"\r\n" +
		"--inner\r\n" +
		"Content-Disposition: file; filename=\"a.txt\"\r\n" +
		"\r\n" +
		"aaa\r\n" +
		"--inner\r\n" +
		"Content-Disposition: file; filename=\"b.gif\"\r\n" +
		"Content-Type: image/gif\r\n" +
		"\r\n" +
		"bbb\r\n" +
		"--inner--\r\n" +
		"--outer--\r\n")
	for name, reads := range fragmentations(data, 50) {
		mc, buf, err := consumeMultipart("outer", int64(len(data)), reads)
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		body := mc.Body()
		if body.Parts().Len() != 2 || string(body.Part("title").Content()) != "pictures" {
			t.Fatalf("%v: outer parts", name)
		}
		files := body.Part("files")
		if files == nil || !files.Body().IsMultipart() {
			t.Fatalf("%v: files part %+v", name, files)
		}
		inner := files.Body().Parts()
		if inner.Len() != 2 {
			t.Fatalf("%v: %v inner parts", name, inner.Len())
		}
		a, b := inner.At(0), inner.At(1)
		if a.FileName() != "a.txt" || string(a.Content()) != "aaa" || !a.IsFile() {
			t.Fatalf("%v: inner part a %q %q", name, a.FileName(), a.Content())
		}
		if b.FileName() != "b.gif" || string(b.Content()) != "bbb" || !b.ContentType().Is("image", "gif") {
			t.Fatalf("%v: inner part b %q %q", name, b.FileName(), b.Content())
		}
		if inner.Get("") != nil {
			t.Fatalf("%v: unnamed part indexed", name)
		}
		if buf.Len() != 0 {
			t.Fatalf("%v: %v bytes left", name, buf.Len())
		}
	}
}

func TestMultipartUnnamedAndDuplicate(t *testing.T) {
	data := []byte("--X\r\n\r\nfirst\r\n" +
		"--X\r\nContent-Disposition: form-data; name=\"n\"\r\n\r\none\r\n" +
		"--X\r\nContent-Disposition: form-data; name=\"n\"\r\n\r\ntwo\r\n" +
		"--X\r\n\r\n\r\n" +
		"--X--")
	mc, _, err := consumeMultipart("X", -1, [][]byte{data})
	if err != nil {
		t.Fatal(err)
	}
	parts := mc.Body().Parts()
	if parts.Len() != 4 {
		t.Fatalf("%v parts", parts.Len())
	}
	if string(parts.At(0).Content()) != "first" || parts.At(0).Header().Len() != 0 {
		t.Fatalf("unnamed part %q", parts.At(0).Content())
	}
	if string(parts.Get("n").Content()) != "two" || string(parts.At(1).Content()) != "one" {
		t.Fatalf("duplicate name: %q", parts.Get("n").Content())
	}
	if parts.At(3).Body().Len() != 0 {
		t.Fatalf("empty part %q", parts.At(3).Content())
	}
}

func TestMultipartErrors(t *testing.T) {
	_, _, err := consumeMultipart("X", -1, [][]byte{[]byte("--Y\r\n\r\nvalue\r\n--Y--")})
	if !errors.Is(err, ErrInvalidBoundary) {
		t.Fatalf("wrong token: %v", err)
	}
	_, _, err = consumeMultipart("X", -1, [][]byte{[]byte("--X!!\r\n\r\nvalue\r\n--X--")})
	if !errors.Is(err, ErrInvalidBoundary) {
		t.Fatalf("bad boundary tail: %v", err)
	}
	_, _, err = consumeMultipart("X", 20, [][]byte{[]byte(formBody)})
	if !errors.Is(err, cursor.ErrLimitReached) {
		t.Fatalf("short Content-Length: %v", err)
	}

	h := newHeader()
	h.add("Content-Type", "multipart/form-data")
	if _, err := NewBodyConsumer(h, Config{}); !errors.Is(err, ErrInvalidBoundary) {
		t.Fatalf("missing boundary: %v", err)
	}
}

func TestMultipartWriterInterop(t *testing.T) {
	var w bytes.Buffer
	mw := multipart.NewWriter(&w)
	fw, err := mw.CreateFormField("comment")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("looks good\r\n--not a boundary"))
	fw, err = mw.CreateFormFile("upload", "data.bin")
	if err != nil {
		t.Fatal(err)
	}
	payload := bytes.Repeat([]byte{'\r', '\n', '-', 0}, 1000)
	fw.Write(payload)
	mw.Close()

	h := newHeader()
	h.add("Content-Type", mw.FormDataContentType())

	bc, err := NewBodyConsumer(h, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := feed(bc, fragmentations(w.Bytes(), 1)["random-0"]); err != nil {
		t.Fatal(err)
	}
	if !bc.IsFinished() {
		t.Fatalf("not finished")
	}
	body := bc.Body()
	if got := string(body.Part("comment").Content()); got != "looks good\r\n--not a boundary" {
		t.Fatalf("comment %q", got)
	}
	upload := body.Part("upload")
	if !upload.IsFile() || upload.FileName() != "data.bin" || !bytes.Equal(upload.Content(), payload) {
		t.Fatalf("upload %q, %v bytes", upload.FileName(), len(upload.Content()))
	}
}
