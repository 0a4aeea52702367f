// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"bytes"
	"strconv"
)

// parserState is the headerParser's state machine position.
type parserState uint8

const (
	stateReadLen parserState = iota
	stateReadBody
	stateExpectComma
	stateDone
	stateError
)

// maxHeaderBlockSize bounds the declared length prefix so a malformed or
// hostile client cannot make the parser allocate an unbounded buffer
// before any header bytes have actually been validated.
const maxHeaderBlockSize = 1 << 20 // 1 MiB

// headerParser is a streaming parser for the wire format described in
// §6.2: an ASCII decimal length, a colon, that many bytes of
// "name\0value\0name\0value\0...", then a comma. It is fed one buffer
// at a time; feed reports how many bytes of that buffer it consumed, so
// the caller can find the start of the request body in the remainder.
type headerParser struct {
	state     parserState
	lenDigits bytes.Buffer
	length    int
	body      []byte
	bodyRead  int
	headers   map[string]string
}

func newHeaderParser() *headerParser {
	return &headerParser{headers: make(map[string]string)}
}

// feed consumes as much of buf as is needed to reach DONE or ERROR, and
// returns the number of bytes it consumed. Once state is stateDone,
// buf[consumed:] is the start of the request body.
func (p *headerParser) feed(buf []byte) int {
	consumed := 0
	for consumed < len(buf) && p.state != stateDone && p.state != stateError {
		switch p.state {
		case stateReadLen:
			b := buf[consumed]
			consumed++
			switch {
			case b >= '0' && b <= '9':
				p.lenDigits.WriteByte(b)
			case b == ':':
				n, err := strconv.Atoi(p.lenDigits.String())
				if err != nil || n < 0 || n > maxHeaderBlockSize {
					p.state = stateError
					continue
				}
				p.length = n
				p.body = make([]byte, n)
				p.state = stateReadBody
			default:
				p.state = stateError
			}
		case stateReadBody:
			need := p.length - p.bodyRead
			avail := len(buf) - consumed
			n := need
			if avail < n {
				n = avail
			}
			copy(p.body[p.bodyRead:], buf[consumed:consumed+n])
			p.bodyRead += n
			consumed += n
			if p.bodyRead == p.length {
				p.state = stateExpectComma
			}
		case stateExpectComma:
			b := buf[consumed]
			consumed++
			if b != ',' {
				p.state = stateError
				continue
			}
			if err := p.parseBody(); err != nil {
				p.state = stateError
				continue
			}
			p.state = stateDone
		}
	}
	return consumed
}

// parseBody splits the accumulated body on NUL bytes into alternating
// name/value pairs. A duplicate name overwrites the previous value
// (last-wins, per §4.3).
func (p *headerParser) parseBody() error {
	rest := p.body
	for len(rest) > 0 {
		nameEnd := bytes.IndexByte(rest, 0)
		if nameEnd < 0 {
			return errMalformedHeaderBlock
		}
		name := string(rest[:nameEnd])
		rest = rest[nameEnd+1:]

		valueEnd := bytes.IndexByte(rest, 0)
		if valueEnd < 0 {
			return errMalformedHeaderBlock
		}
		value := string(rest[:valueEnd])
		rest = rest[valueEnd+1:]

		if name != "" {
			p.headers[name] = value
		}
	}
	return nil
}

func (p *headerParser) done() bool  { return p.state == stateDone }
func (p *headerParser) failed() bool { return p.state == stateError }

// header returns the last-wins value for name and whether it was present.
func (p *headerParser) header(name string) (string, bool) {
	v, ok := p.headers[name]
	return v, ok
}

// headerBlock returns the raw name\0value\0... bytes, unmodified, for
// pass-through to the backend (§4.3: "the raw header block").
func (p *headerParser) headerBlock() []byte {
	return p.body
}

// contentLength returns CONTENT_LENGTH parsed as a decimal integer, or 0
// if it is absent or unparsable (§4.3).
func (p *headerParser) contentLength() int64 {
	v, ok := p.header("CONTENT_LENGTH")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

var errMalformedHeaderBlock = errHeaderBlock("malformed header block")

type errHeaderBlock string

func (e errHeaderBlock) Error() string { return "helperserver: " + string(e) }
