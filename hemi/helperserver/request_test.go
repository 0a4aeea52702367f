// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"bytes"
	"strings"
	"testing"
)

func TestForwardRequestBodyPartialPlusRemainder(t *testing.T) {
	session := newFakeSession("")
	client := strings.NewReader("world")

	if err := forwardRequestBody(session, client, []byte("hello "), 11); err != nil {
		t.Fatalf("forwardRequestBody: %v", err)
	}
	if session.sent.String() != "hello world" {
		t.Fatalf("got %q", session.sent.String())
	}
}

func TestForwardRequestBodyStopsAtContentLength(t *testing.T) {
	session := newFakeSession("")
	client := strings.NewReader("this is way more than the declared length")

	if err := forwardRequestBody(session, client, nil, 4); err != nil {
		t.Fatalf("forwardRequestBody: %v", err)
	}
	if session.sent.String() != "this" {
		t.Fatalf("expected exactly 4 bytes forwarded, got %q", session.sent.String())
	}
}

func TestForwardRequestBodyClientHalfClosesEarly(t *testing.T) {
	session := newFakeSession("")
	client := strings.NewReader("short") // declares 1MiB but only sends 5 bytes

	if err := forwardRequestBody(session, client, nil, 1<<20); err != nil {
		t.Fatalf("forwardRequestBody: %v", err)
	}
	if session.sent.String() != "short" {
		t.Fatalf("expected min(declared, actually sent) == 5 bytes, got %q", session.sent.String())
	}
}

func TestForwardResponseRewritesStatusThenPassesThrough(t *testing.T) {
	backend := strings.NewReader("Status: 201 Created\r\nLocation: /x\r\n\r\n" + strings.Repeat("body", 1000))
	var client bytes.Buffer

	if err := forwardResponse(&client, backend); err != nil {
		t.Fatalf("forwardResponse: %v", err)
	}
	got := client.String()
	if !strings.HasPrefix(got, "HTTP/1.1 201 Created\r\nStatus: 201 Created\r\nLocation: /x\r\n\r\n") {
		t.Fatalf("missing or wrong synthesised status line: %q", got[:60])
	}
	if !strings.HasSuffix(got, strings.Repeat("body", 1000)) {
		t.Fatal("passthrough body truncated or altered")
	}
}

// abortingWriter simulates a client that disconnects after n bytes,
// returning an error on every subsequent Write, exactly as a broken pipe
// would once SIGPIPE has been neutralised (§5, scenario 6 in spec.md §8).
type abortingWriter struct {
	limit   int
	written int
}

func (w *abortingWriter) Write(p []byte) (int, error) {
	if w.written >= w.limit {
		return 0, errAbortedWrite
	}
	n := len(p)
	if w.written+n > w.limit {
		n = w.limit - w.written
	}
	w.written += n
	if n < len(p) {
		return n, errAbortedWrite
	}
	return n, nil
}

var errAbortedWrite = bytes.ErrTooLarge // reuse a stdlib sentinel distinct from io.EOF

func TestForwardResponseClientAbortMidStreamSurfacesError(t *testing.T) {
	backend := strings.NewReader("Status: 200 OK\r\n\r\n" + strings.Repeat("x", 1<<20))
	client := &abortingWriter{limit: 16 << 10}

	err := forwardResponse(client, backend)
	if err == nil {
		t.Fatal("expected a write error once the client aborts, not a silent success")
	}
}
