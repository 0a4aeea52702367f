// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"io"
	"strconv"
)

// bodyReadChunk is the chunk size used when reading the remainder of the
// request body directly from the client (§4.5 step 5).
const bodyReadChunk = 16 << 10

// responseWriteChunk is the chunk size used when streaming the
// passthrough portion of the backend's response (§4.5 step 6).
const responseWriteChunk = 32 << 10

// forwardRequestBody sends partial (the bytes the header parser already
// read past the header terminator) to session, then — if contentLength
// is larger than len(partial) — reads the rest directly from client in
// bodyReadChunk-sized pieces until contentLength bytes total have been
// forwarded or the client half-closes. It forwards min(contentLength,
// bytes the client actually sent), per the testable property in §8.
func forwardRequestBody(session Session, client io.Reader, partial []byte, contentLength int64) error {
	var forwarded int64
	if len(partial) > 0 {
		if err := session.SendBodyBlock(partial); err != nil {
			return transient("forward-body", err)
		}
		forwarded = int64(len(partial))
	}

	buf := make([]byte, bodyReadChunk)
	for forwarded < contentLength {
		want := contentLength - forwarded
		if want > int64(len(buf)) {
			want = int64(len(buf))
		}
		n, err := client.Read(buf[:want])
		if n > 0 {
			if werr := session.SendBodyBlock(buf[:n]); werr != nil {
				return transient("forward-body", werr)
			}
			forwarded += int64(n)
		}
		if err != nil {
			break // client half-closed (or errored) before sending contentLength bytes
		}
	}
	return nil
}

// forwardResponse streams the backend's CGI-style output from src to
// dst, synthesising the HTTP/1.1 status line exactly once via a
// responseExtractor and then passing everything else through verbatim
// (§4.5 step 6, §4.4).
func forwardResponse(dst io.Writer, src io.Reader) error {
	extractor := newResponseExtractor()
	buf := make([]byte, responseWriteChunk)

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			out, done := extractor.feed(buf[:n])
			if len(out) > 0 {
				if _, werr := dst.Write(out); werr != nil {
					return transient("forward-response", werr)
				}
			}
			if done {
				// Status line has been emitted; the rest of the
				// backend's bytes go straight through without
				// touching the extractor again.
				if _, err := io.CopyBuffer(dst, src, buf); err != nil && err != io.EOF {
					return transient("forward-response", err)
				}
				return nil
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				if out := extractor.finish(); len(out) > 0 {
					if _, werr := dst.Write(out); werr != nil {
						return transient("forward-response", werr)
					}
				}
				return nil
			}
			return transient("forward-response", rerr)
		}
	}
}

// writeSpawnFailureResponse emits the §4.6 500 response for a pool that
// could not provide a session, byte-for-byte matching the header set and
// order of the original source's handleSpawnException (including the
// redundant Status: header alongside the HTTP status line).
func writeSpawnFailureResponse(fc *framedConn, spawnErr *SpawnError) error {
	body, _ := spawnErr.Page()
	resp := "HTTP/1.1 500 Internal Server Error\r\n" +
		"Status: 500 Internal Server Error\r\n" +
		"Connection: close\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"\r\n" +
		body
	return fc.writeRaw([]byte(resp))
}
