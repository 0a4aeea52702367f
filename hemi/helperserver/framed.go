// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"errors"
	"io"
)

// framedConn is a thin wrapper over a bidirectional byte stream, used for
// the password exchange and for emitting the synthesised response line.
// It exists so that "read exactly n bytes" and "write everything" are
// each one call instead of a hand-rolled loop at every call site.
type framedConn struct {
	rw io.ReadWriter
}

func newFramedConn(rw io.ReadWriter) *framedConn {
	return &framedConn{rw: rw}
}

// readExact blocks until buf is completely filled or the stream ends.
// A short read at end-of-stream is reported as an error: the caller
// cannot tell "connection closed early" from "connection closed cleanly"
// any other way.
func (f *framedConn) readExact(buf []byte) error {
	_, err := io.ReadFull(f.rw, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return errShortRead
	}
	return err
}

// writeAll blocks until every byte of buf has been written.
func (f *framedConn) writeAll(buf []byte) error {
	_, err := f.rw.Write(buf)
	return err
}

// writeRaw is an alias for writeAll kept around because the response
// extractor and the spawn-failure responder both want to say "write
// these bytes verbatim, no framing" at their call sites — distinct from
// a hypothetical length-prefixed write, which this protocol does not use
// on the outbound side.
func (f *framedConn) writeRaw(buf []byte) error {
	return f.writeAll(buf)
}

var errShortRead = errors.New("helperserver: short read, connection closed before enough bytes arrived")
