// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"errors"
	"fmt"
	"os"
)

// errInterrupted signals that the worker's current blocking call
// returned because the server is shutting down, not because of a
// client- or backend-induced failure. It always propagates out of the
// iteration boundary and ends the worker loop (§7 "Request interrupted").
var errInterrupted = errors.New("helperserver: worker interrupted")

var errDoubleRelease = errors.New("helperserver: ownedFD released more times than retained")

// transientError marks a per-connection failure (§7 "Transient
// per-connection"): bad password, malformed header, missing
// DOCUMENT_ROOT, client or backend disconnect. The worker logs it and
// continues to its next iteration; it never reaches a caller outside
// the worker loop.
type transientError struct {
	op  string
	err error
}

func (e *transientError) Error() string { return "helperserver: " + e.op + ": " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func transient(op string, err error) error {
	return &transientError{op: op, err: err}
}

// fatalStartup logs a startup failure (§7 "Startup failure": bind,
// listen, socket creation, or admin-pipe read) with the offending path
// or syscall context and exits non-zero, mirroring the exit-code
// contract of §6.1 and the teacher's own EnvExitln/UseExitln idiom in
// hemi/hemi.go.
func fatalStartup(logger Logger, context string, err error) {
	logger.Errorf("startup failed: %s: %v", context, err)
	os.Exit(1)
}

// fatalBug aborts the process because an error escaped a worker
// iteration's boundary undetected — per §4.5 and §7, this can only mean
// a bug in one of the lower-level components, not a client-induced
// error, so the process is killed rather than limping on. This is the
// Go transliteration of Client::threadMain's catch-all abort() in
// original_source/ext/nginx/HelperServer.cpp.
func fatalBug(logger Logger, workerID int, recovered any) {
	logger.Errorf("worker %d: unhandled panic, aborting process: %v", workerID, recovered)
	fmt.Fprintf(os.Stderr, "helperserver: BUG: worker %d: unhandled panic: %v\n", workerID, recovered)
	os.Exit(70) // EX_SOFTWARE, matches the deliberate-crash contract
}
