// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// headerReadChunk is the buffer size used while reading the connection's
// length-prefixed header block (§6.2).
const headerReadChunk = 16 << 10

// worker is one of the server's fixed set of goroutines that all Accept
// on the shared listener (§3 "Worker set", §4.7). Every worker runs the
// same loop; the kernel balances incoming connections across them.
type worker struct {
	id  int
	srv *Server
}

// run is the worker's top-level loop: accept, handle, repeat, until the
// server starts shutting down. A panic escaping iterate is a programming
// error in one of the lower layers, never a client- or backend-induced
// condition, so it aborts the whole process rather than just this
// goroutine — the Go transliteration of Client::threadMain's catch-all
// in original_source/ext/nginx/HelperServer.cpp.
func (w *worker) run() {
	defer func() {
		if r := recover(); r != nil {
			fatalBug(w.srv.logger, w.id, r)
		}
	}()

	for {
		select {
		case <-w.srv.shutdownCh:
			return
		default:
		}

		if err := w.iterate(); err != nil {
			if errors.Is(err, errInterrupted) {
				return
			}
			// Every other error class iterate can return is already
			// logged at its point of origin; the loop just moves on
			// to the next connection (§7 "Transient per-connection").
		}
	}
}

// iterate handles exactly one connection, start to finish: accept,
// authenticate, parse headers, lease a backend session, forward the
// request, stream back the response, release everything. It never
// returns an error for conditions the spec classifies as "Transient
// per-connection" or "Spawn failure" — those are logged here and
// iterate returns nil so the worker moves on to its next connection.
// It returns errInterrupted only when the server is shutting down, and
// a transientError only when Accept itself fails outside shutdown (that
// failure is logged here too).
func (w *worker) iterate() error {
	rawConn, err := w.srv.listener.Accept()
	if err != nil {
		select {
		case <-w.srv.shutdownCh:
			return errInterrupted
		default:
		}
		w.srv.logger.Errorf("worker %d: accept: %v", w.id, err)
		return transient("accept", err)
	}

	fd := newOwnedFD(rawConn)
	defer fd.release()

	connID := uuid.New().String()
	w.srv.stater.IncAccepted()

	fc := newFramedConn(rawConn)

	// Step: authenticate (§4.1, §4.5 step 1).
	var presented [secretSize]byte
	if err := fc.readExact(presented[:]); err != nil || !w.srv.secret.matches(presented[:]) {
		w.srv.stater.IncRejectedPassword()
		w.srv.logger.Errorf("connection %s: rejected: bad or missing password", connID)
		return nil
	}

	// Step: read and parse the length-prefixed header block (§4.2, §4.5
	// step 2).
	parser := newHeaderParser()
	readBuf := make([]byte, headerReadChunk)
	var partialBody []byte
	for !parser.done() && !parser.failed() {
		n, rerr := rawConn.Read(readBuf)
		if n > 0 {
			consumed := parser.feed(readBuf[:n])
			if parser.done() {
				partialBody = append([]byte(nil), readBuf[consumed:n]...)
				break
			}
		}
		if rerr != nil {
			break
		}
	}
	if !parser.done() || parser.failed() {
		w.srv.logger.Errorf("connection %s: malformed or truncated header block", connID)
		return nil
	}

	documentRoot, ok := parser.header("DOCUMENT_ROOT")
	if !ok || documentRoot == "" {
		w.srv.logger.Errorf("connection %s: missing DOCUMENT_ROOT header", connID)
		return nil
	}
	appRoot, err := canonicalizeAppRoot(documentRoot)
	if err != nil {
		w.srv.logger.Errorf("connection %s: %v", connID, err)
		return nil
	}

	useGlobalQueue, _ := parser.header("PASSENGER_USE_GLOBAL_QUEUE")
	environment, _ := parser.header("PASSENGER_ENVIRONMENT")
	spawnMethod, _ := parser.header("PASSENGER_SPAWN_METHOD")
	opts := PoolOptions{
		AppRoot:        appRoot,
		UseGlobalQueue: useGlobalQueue == "true",
		Environment:    environment,
		SpawnMethod:    spawnMethod,
	}

	// Step: lease a backend session (§4.5 step 4, §6.3).
	session, err := w.srv.pool.Get(context.Background(), opts)
	if err != nil {
		var spawnErr *SpawnError
		if errors.As(err, &spawnErr) {
			w.srv.stater.IncSpawnFailure()
			w.srv.logger.Infof("connection %s: spawn failure for %s: %s", connID, appRoot, spawnErr.Message)
			if werr := writeSpawnFailureResponse(fc, spawnErr); werr != nil {
				w.srv.logger.Errorf("connection %s: writing spawn-failure response: %v", connID, werr)
			}
			return nil
		}
		w.srv.logger.Errorf("connection %s: pool.Get: %v", connID, err)
		return nil
	}
	defer session.Release()

	// Step: forward the request to the backend (§4.3, §4.5 step 5).
	if err := session.SendHeaders(parser.headerBlock()); err != nil {
		w.srv.logger.Errorf("connection %s: sending headers to backend: %v", connID, err)
		return nil
	}
	if err := forwardRequestBody(session, rawConn, partialBody, parser.contentLength()); err != nil {
		w.srv.logger.Errorf("connection %s: %v", connID, err)
		return nil
	}
	if err := session.ShutdownWriter(); err != nil {
		w.srv.logger.Errorf("connection %s: shutting down backend writer: %v", connID, err)
		return nil
	}

	// Step: stream the backend's response back to the client (§4.4,
	// §4.5 step 6).
	if err := forwardResponse(rawConn, session.Stream()); err != nil {
		w.srv.logger.Errorf("connection %s: %v", connID, err)
		return nil
	}

	return nil
}
