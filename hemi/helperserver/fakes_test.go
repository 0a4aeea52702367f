// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// fakeSession is an in-memory Session fake: everything written via
// SendHeaders/SendBodyBlock lands in sent, and Stream reads from a
// canned backend response.
type fakeSession struct {
	sent     bytes.Buffer
	response *bytes.Reader
	shutdown bool
	released bool
}

func newFakeSession(response string) *fakeSession {
	return &fakeSession{response: bytes.NewReader([]byte(response))}
}

func (s *fakeSession) SendHeaders(block []byte) error {
	s.sent.Write(block)
	return nil
}
func (s *fakeSession) SendBodyBlock(chunk []byte) error {
	s.sent.Write(chunk)
	return nil
}
func (s *fakeSession) ShutdownWriter() error {
	s.shutdown = true
	return nil
}
func (s *fakeSession) Stream() io.Reader { return s.response }
func (s *fakeSession) Release()          { s.released = true }

// fakePool hands back one canned session, or a *SpawnError, per call.
type fakePool struct {
	mu        sync.Mutex
	session   Session
	spawnErr  *SpawnError
	lastOpts  PoolOptions
	maxTotal  int
	maxPerApp int
	idleTime  time.Duration
}

func (p *fakePool) Get(ctx context.Context, opts PoolOptions) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastOpts = opts
	if p.spawnErr != nil {
		return nil, p.spawnErr
	}
	if p.session == nil {
		return nil, errors.New("fakePool: no session configured")
	}
	return p.session, nil
}
func (p *fakePool) SetMax(n int)                  { p.maxTotal = n }
func (p *fakePool) SetMaxPerApp(n int)             { p.maxPerApp = n }
func (p *fakePool) SetMaxIdleTime(d time.Duration) { p.idleTime = d }

// onceListener hands out a single pre-made net.Conn from Accept, then
// blocks until Close is called, at which point it reports the listener
// as closed — enough surface for worker tests that drive one connection
// at a time through iterate() directly.
type onceListener struct {
	mu     sync.Mutex
	conn   net.Conn
	used   bool
	closed chan struct{}
}

func newOnceListener(conn net.Conn) *onceListener {
	return &onceListener{conn: conn, closed: make(chan struct{})}
}

func (l *onceListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if !l.used {
		l.used = true
		conn := l.conn
		l.mu.Unlock()
		return conn, nil
	}
	l.mu.Unlock()
	<-l.closed
	return nil, errors.New("onceListener: closed")
}

func (l *onceListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return nil
}

func (l *onceListener) Addr() net.Addr { return fakeAddr{} }

type fakeAddr struct{}

func (fakeAddr) Network() string { return "fake" }
func (fakeAddr) String() string  { return "fake" }

// testSecret is a fixed, reusable 64-byte secret for worker/server tests.
func testSecret() SharedSecret {
	var s SharedSecret
	for i := range s {
		s[i] = byte(i)
	}
	return s
}
