// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/lesismal/nbframe/nbhttp"
)

type entityKey struct{}

// withEntity stores the parsed request in ctx for the handlers.
func withEntity(ctx context.Context, e *nbhttp.Entity) context.Context {
	return context.WithValue(ctx, entityKey{}, e)
}

func requestEntity(r *http.Request) *nbhttp.Entity {
	e, _ := r.Context().Value(entityKey{}).(*nbhttp.Entity)
	return e
}

func requestBody(r *http.Request) *nbhttp.Body {
	if e := requestEntity(r); e != nil {
		return e.Body()
	}
	return nil
}

func newRouter() *httprouter.Router {
	router := httprouter.New()
	router.GET("/", onIndex)
	router.GET("/hello/:name", onHello)
	router.POST("/echo", onEcho)
	router.PUT("/echo", onEcho)
	router.POST("/upload", onUpload)
	return router
}

func onIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Write([]byte(time.Now().Format("20060102 15:04:05")))
}

func onHello(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lang := "en"
	if e := requestEntity(r); e != nil {
		if languages := e.Header().Languages(); len(languages) > 0 {
			lang = languages[0]
		}
	}
	fmt.Fprintf(w, "hello, %v (%v)\n", ps.ByName("name"), lang)
}

func onEcho(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", r.Header.Get("Content-Type"))
	if body := requestBody(r); body != nil {
		w.Write(body.Content())
	}
}

func onUpload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body := requestBody(r)
	if body == nil || !body.IsMultipart() {
		http.Error(w, "multipart body expected", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for i, part := range body.Parts().All() {
		if part.IsFile() {
			fmt.Fprintf(w, "%d: file %q name=%q size=%d type=%v\n", i, part.FileName(), part.Name(), len(part.Content()), part.ContentType())
			continue
		}
		fmt.Fprintf(w, "%d: field name=%q value=%q\n", i, part.Name(), part.Content())
	}
}
