// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"fmt"
	"net"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Server is the supervisor described in §4.7: it owns the listening
// socket and the fixed set of workers, and turns one byte (or an
// early close) read from the admin channel into an orderly shutdown.
// There is exactly one Server per process.
type Server struct {
	cfg    Config
	secret SharedSecret
	pool   Pool
	logger Logger
	stater Stater

	adminChannel *os.File
	listener     net.Listener
	socketPath   string
	shutdownCh   chan struct{}
	activeCount  atomic.Int32
}

// NewServer wires together the collaborators a Server needs. pool,
// logger, and stater are never nil in production use; tests pass fakes.
func NewServer(cfg Config, secret SharedSecret, pool Pool, logger Logger, stater Stater, adminChannel *os.File) *Server {
	if logger == nil {
		logger = noopLogger{}
	}
	if stater == nil {
		stater = noopStater{}
	}
	return &Server{
		cfg:          cfg,
		secret:       secret,
		pool:         pool,
		logger:       logger,
		stater:       stater,
		adminChannel: adminChannel,
		shutdownCh:   make(chan struct{}),
	}
}

// Serve binds the listening socket, starts the worker set, and blocks
// until the admin channel signals shutdown (§4.7, §6.4). It applies the
// pool's size limits from cfg before starting workers, then returns once
// every worker has returned and the socket has been torn down.
func (s *Server) Serve() error {
	listener, path, err := bindUnixSocket(systemTempDir())
	if err != nil {
		fatalStartup(s.logger, "bind unix socket", err)
		return err // unreachable: fatalStartup exits the process
	}
	s.listener = listener
	s.socketPath = path
	defer os.Remove(path)

	return s.serveWithListener()
}

// serveWithListener runs the worker set and the shutdown wait against
// whatever s.listener already holds, split out from Serve so tests can
// substitute a listener backed by net.Pipe instead of a real bound
// socket.
func (s *Server) serveWithListener() error {
	s.pool.SetMax(s.cfg.MaxPoolSize)
	s.pool.SetMaxPerApp(s.cfg.MaxInstancesPerApp)
	s.pool.SetMaxIdleTime(s.cfg.PoolIdleTime)

	group := new(errgroup.Group)
	numWorkers := s.cfg.NumWorkers()
	for i := 0; i < numWorkers; i++ {
		id := i
		group.Go(func() error {
			s.activeCount.Add(1)
			s.stater.SetActiveWorkers(int(s.activeCount.Load()))
			defer func() {
				s.activeCount.Add(-1)
				s.stater.SetActiveWorkers(int(s.activeCount.Load()))
			}()

			w := &worker{id: id, srv: s}
			w.run()
			return nil
		})
	}
	s.logger.Infof("starting %d workers", numWorkers)

	s.waitForShutdownSignal()

	if err := group.Wait(); err != nil {
		return fmt.Errorf("helperserver: worker set: %w", err)
	}
	return nil
}

// waitForShutdownSignal blocks until a byte (or EOF, or an error) is read
// from the admin channel (§6.4), then closes shutdownCh and the listener
// so every worker's next blocking call returns and observes the signal.
func (s *Server) waitForShutdownSignal() {
	buf := make([]byte, 1)
	_, _ = s.adminChannel.Read(buf) // any outcome — byte, EOF, or error — means "shut down"

	close(s.shutdownCh)
	_ = s.listener.Close()
	_ = s.adminChannel.Close()
	s.logger.Infof("shutdown signal received, draining workers")
}
