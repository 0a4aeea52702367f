// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"strings"
	"testing"
)

func TestResponseExtractorRewritesStatusLine(t *testing.T) {
	backend := "Status: 200 OK\r\nContent-Type: text/plain\r\n\r\nok"
	x := newResponseExtractor()

	out, done := x.feed([]byte(backend))
	if !done {
		t.Fatal("expected done after a complete header block")
	}
	want := "HTTP/1.1 200 OK\r\n" + backend
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestResponseExtractorDefaultsTo200(t *testing.T) {
	backend := "Content-Type: text/plain\r\n\r\nok"
	x := newResponseExtractor()

	out, done := x.feed([]byte(backend))
	if !done {
		t.Fatal("expected done")
	}
	if !strings.HasPrefix(string(out), "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("expected default 200 OK status line, got %q", out)
	}
}

func TestResponseExtractorStatusCaseInsensitive(t *testing.T) {
	backend := "status: 404 Not Found\r\n\r\n"
	x := newResponseExtractor()

	out, done := x.feed([]byte(backend))
	if !done {
		t.Fatal("expected done")
	}
	if !strings.HasPrefix(string(out), "HTTP/1.1 404 Not Found\r\n") {
		t.Fatalf("got %q", out)
	}
}

func TestResponseExtractorPassthroughAfterDone(t *testing.T) {
	x := newResponseExtractor()
	_, done := x.feed([]byte("Status: 200 OK\r\n\r\n"))
	if !done {
		t.Fatal("expected done")
	}

	out, done2 := x.feed([]byte("more body bytes"))
	if !done2 {
		t.Fatal("expected still done")
	}
	if string(out) != "more body bytes" {
		t.Fatalf("passthrough mismatch: got %q", out)
	}
}

func TestResponseExtractorFinishOnTruncatedStream(t *testing.T) {
	x := newResponseExtractor()
	_, done := x.feed([]byte("Content-Type: text/plain\r\n"))
	if done {
		t.Fatal("should not be done without a full header block")
	}

	out := x.finish()
	if !strings.HasPrefix(string(out), "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("finish should synthesise a default status line, got %q", out)
	}
}

func TestResponseExtractorCapTriggersSynthesis(t *testing.T) {
	x := newResponseExtractor()
	big := strings.Repeat("a", responseBufferCap+1)

	out, done := x.feed([]byte(big))
	if !done {
		t.Fatal("expected the buffer cap to force completion")
	}
	if !strings.HasPrefix(string(out), "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("got %q", out[:32])
	}
}
