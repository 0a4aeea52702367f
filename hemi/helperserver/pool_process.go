// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// processPool is the minimal, reference Pool (§6.3): it spawns one fresh
// interpreter process per leased session and never reuses or caches it
// across requests. Caching a warm pool of backends per application and
// evicting them on an idle timer is exactly the "application pool's
// spawning and eviction policy" the spec this package implements calls
// out of scope (§1 Non-goals) — this type exists only so
// cmds/helperserver/main.go has a real, working Pool to hand the Server,
// not as an attempt at that policy. SetMax/SetMaxPerApp/SetMaxIdleTime
// are accepted and stored but have no effect beyond bounding concurrent
// spawns, since there is no cache for them to size.
type processPool struct {
	interpreterPath string

	mu         sync.Mutex
	maxTotal   int
	maxPerApp  int
	idleTime   time.Duration
	concurrent int
}

// NewProcessPool returns a Pool that spawns interpreterPath fresh for
// every leased session, passing the application root as its sole
// argument — mirroring the "spawn a fresh interpreter, feed it the CGI
// environment over stdin, read its CGI-style output from stdout"
// contract original_source/ext/nginx/HelperServer.cpp hands off to its
// (separately implemented) spawner.
func NewProcessPool(interpreterPath string) Pool {
	return &processPool{interpreterPath: interpreterPath}
}

func (p *processPool) SetMax(n int)                   { p.mu.Lock(); p.maxTotal = n; p.mu.Unlock() }
func (p *processPool) SetMaxPerApp(n int)             { p.mu.Lock(); p.maxPerApp = n; p.mu.Unlock() }
func (p *processPool) SetMaxIdleTime(d time.Duration) { p.mu.Lock(); p.idleTime = d; p.mu.Unlock() }

// Get spawns a fresh backend process rooted at opts.AppRoot. A failure
// to start the process is reported as a *SpawnError (§4.6), never a bare
// error, so callers can tell a spawn failure from every other class of
// error pool.Get might return.
func (p *processPool) Get(ctx context.Context, opts PoolOptions) (Session, error) {
	p.mu.Lock()
	total := p.maxTotal
	concurrent := p.concurrent
	p.mu.Unlock()
	if total > 0 && concurrent >= total {
		return nil, &SpawnError{Message: fmt.Sprintf("pool exhausted: %d backends already running", concurrent)}
	}

	cmd := exec.CommandContext(ctx, p.interpreterPath, opts.AppRoot)
	cmd.Env = append(cmd.Env, "PASSENGER_ENVIRONMENT="+opts.Environment, "PASSENGER_SPAWN_METHOD="+opts.SpawnMethod)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &SpawnError{Message: "could not open backend stdin: " + err.Error()}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Message: "could not open backend stdout: " + err.Error()}
	}
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Message: "could not spawn backend at " + opts.AppRoot + ": " + err.Error()}
	}

	p.mu.Lock()
	p.concurrent++
	p.mu.Unlock()

	return &processSession{pool: p, cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

// processSession is a lease on one spawned backend process, implementing
// Session (§6.3).
type processSession struct {
	pool   *processPool
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	released bool
}

func (s *processSession) SendHeaders(block []byte) error {
	_, err := s.stdin.Write(block)
	return err
}

func (s *processSession) SendBodyBlock(chunk []byte) error {
	_, err := s.stdin.Write(chunk)
	return err
}

func (s *processSession) ShutdownWriter() error {
	return s.stdin.Close()
}

func (s *processSession) Stream() io.Reader {
	return s.stdout
}

// Release waits for the backend to exit and returns its slot to the
// pool. It is a no-op on a second call.
func (s *processSession) Release() {
	if s.released {
		return
	}
	s.released = true
	_ = s.stdin.Close()
	_ = s.stdout.Close()
	_ = s.cmd.Wait()
	s.pool.mu.Lock()
	s.pool.concurrent--
	s.pool.mu.Unlock()
}
