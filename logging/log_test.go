// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	old := DefaultLogger
	defer SetLogger(old)

	buf := &bytes.Buffer{}
	SetLogger(New(buf, LevelDebug))
	Debug("debug %d", 1)
	Info("info %d", 2)
	Warn("warn %d", 3)
	Error("error %d", 4)

	out := buf.String()
	for _, want := range []string{"[DBG] debug 1", "[INF] info 2", "[WRN] warn 3", "[ERR] error 4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestSetLevel(t *testing.T) {
	old := DefaultLogger
	defer SetLogger(old)

	buf := &bytes.Buffer{}
	SetLogger(New(buf, LevelDebug))
	SetLevel(LevelWarn)
	Debug("hidden")
	Info("hidden")
	Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("message below level was written: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("message at level was dropped: %q", buf.String())
	}

	// invalid levels are ignored
	SetLevel(1000)
	Warn("still shown")
	if !strings.Contains(buf.String(), "still shown") {
		t.Fatalf("invalid level changed logger: %q", buf.String())
	}
}

func TestLevelNone(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelNone)
	l.Error("nothing")
	if buf.Len() != 0 {
		t.Fatalf("LevelNone wrote %q", buf.String())
	}
}
