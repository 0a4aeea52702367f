// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"bytes"
	"strings"
)

// responseBufferCap is the configurable cap from §4.4 step 1: if the
// backend never emits a blank line (end of its CGI headers) within this
// many bytes, the extractor gives up waiting and synthesises the status
// line against whatever it has buffered so far.
const responseBufferCap = 16 << 10 // 16 KiB

// responseExtractor turns a backend's CGI-style output (zero or more
// "Name: value\r\n" lines, a blank line, then the body) into an
// HTTP/1.1 response by locating "Status: <code> <reason>" and emitting
// the corresponding status line ahead of everything else, unmodified.
//
// If the backend's first bytes already look like "HTTP/..." (out of
// contract — the backend is only ever supposed to speak CGI), the
// extractor still unconditionally synthesises and prepends its own
// status line: it never tries to detect or dedupe a pre-existing HTTP
// line, so the result is a syntactically valid (if doubly-prefixed)
// response rather than an attempt at backend-output sniffing that could
// itself be fooled. This is the documented resolution to the open
// question in §9.
type responseExtractor struct {
	buf  bytes.Buffer
	done bool
}

func newResponseExtractor() *responseExtractor {
	return &responseExtractor{}
}

// feed buffers chunk and, once a complete header block has been seen
// (or the buffer cap is reached), returns the synthesised status line
// followed by everything buffered so far. Once done is true, every
// subsequent call to feed is a no-op passthrough: it returns chunk
// unchanged, forwarding the backend's bytes verbatim.
func (x *responseExtractor) feed(chunk []byte) (out []byte, done bool) {
	if x.done {
		return chunk, true
	}

	x.buf.Write(chunk)

	if bytes.Contains(x.buf.Bytes(), []byte("\r\n\r\n")) || x.buf.Len() >= responseBufferCap {
		statusLine := x.statusLine(x.buf.Bytes())
		out = make([]byte, 0, len(statusLine)+x.buf.Len())
		out = append(out, statusLine...)
		out = append(out, x.buf.Bytes()...)
		x.done = true
		x.buf.Reset()
		return out, true
	}

	return nil, false
}

// finish forces a synthesised status line out of whatever has been
// buffered so far, for the case where the backend closes its stream
// before a blank line (or the cap) was ever reached. It is a no-op once
// feed has already produced output.
func (x *responseExtractor) finish() []byte {
	if x.done {
		return nil
	}
	statusLine := x.statusLine(x.buf.Bytes())
	out := make([]byte, 0, len(statusLine)+x.buf.Len())
	out = append(out, statusLine...)
	out = append(out, x.buf.Bytes()...)
	x.done = true
	x.buf.Reset()
	return out
}

// statusLine scans data's header lines for the first "Status:" header,
// case-insensitively, and renders it as an HTTP/1.1 status line. If none
// is found, the response is assumed 200 OK (§4.4 steps 2-3).
func (x *responseExtractor) statusLine(data []byte) string {
	for _, line := range bytes.Split(data, []byte("\r\n")) {
		if len(line) == 0 {
			break // blank line: end of the CGI header block, no Status: seen
		}
		if len(line) >= 7 && strings.EqualFold(string(line[:7]), "status:") {
			reason := strings.TrimSpace(string(line[7:]))
			return "HTTP/1.1 " + reason + "\r\n"
		}
	}
	return "HTTP/1.1 200 OK\r\n"
}
