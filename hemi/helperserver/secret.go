// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"crypto/subtle"
	"errors"
)

// secretSize is the fixed width of the shared secret exchanged over the
// admin pipe and compared against the first bytes of every accepted
// connection. See §3 and §6.1 of the spec this package implements.
const secretSize = 64

// SharedSecret is an immutable, fixed-width password. It is read once
// from the admin channel before the listener starts and never changes
// for the lifetime of the process.
type SharedSecret [secretSize]byte

// ReadSharedSecret reads exactly secretSize bytes from the admin channel.
// Short reads or an early EOF are a startup failure (§7). This is the
// exported entry point cmds/helperserver/main.go calls once at startup,
// before the listener is bound.
func ReadSharedSecret(r interface{ Read([]byte) (int, error) }) (SharedSecret, error) {
	return readSharedSecret(r)
}

// readSharedSecret is the unexported implementation shared with tests.
func readSharedSecret(r interface{ Read([]byte) (int, error) }) (SharedSecret, error) {
	var secret SharedSecret
	fc := newFramedConn(readWriterFromReader{r})
	if err := fc.readExact(secret[:]); err != nil {
		return SharedSecret{}, errors.New("helperserver: could not read shared secret from admin channel: " + err.Error())
	}
	return secret, nil
}

// matches performs an exact, non-short-circuiting comparison of buf
// (which need not be exactly secretSize bytes) against the secret. A
// buf of any other length never matches and is rejected at once, without
// a comparison; only the content of a secretSize-byte buf is compared in
// constant time. The standard library's
// crypto/subtle is the one ambient primitive kept on stdlib here: no
// repository in the retrieved corpus rolls its own constant-time compare
// or imports a library for one, and crypto/subtle is the idiomatic Go
// answer to exactly this requirement.
func (s SharedSecret) matches(buf []byte) bool {
	if len(buf) != secretSize {
		return false
	}
	return subtle.ConstantTimeCompare(s[:], buf) == 1
}

// readWriterFromReader adapts a bare Reader to the io.ReadWriter shape
// framedConn expects; Write is never called on it because this path
// only ever reads the secret off the admin pipe.
type readWriterFromReader struct {
	r interface{ Read([]byte) (int, error) }
}

func (a readWriterFromReader) Read(p []byte) (int, error)  { return a.r.Read(p) }
func (a readWriterFromReader) Write(p []byte) (int, error) { return 0, errNotWritable }

var errNotWritable = errors.New("helperserver: admin channel is read-only")
