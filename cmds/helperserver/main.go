// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Helper server: a single-process, multi-worker backend broker spoken to
// over one authenticated Unix domain socket.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hexinfra/helperserver/hemi/helperserver"
)

func main() {
	// §3 of the spec this binary implements: SIGPIPE is globally ignored
	// for the lifetime of the process, so a client or backend closing its
	// end of a socket surfaces as a write error, never as process death.
	signal.Ignore(syscall.SIGPIPE)

	cfg, adminChannel, err := helperserver.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := helperserver.NewLogger("otel")
	defer logger.Close()

	secret, err := helperserver.ReadSharedSecret(adminChannel)
	if err != nil {
		logger.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	stater := helperserver.NewPrometheusStater()
	pool := helperserver.NewProcessPool(cfg.InterpreterPath)

	srv := helperserver.NewServer(cfg, secret, pool, logger, stater, adminChannel)
	if err := srv.Serve(); err != nil {
		logger.Errorf("helper server exited with error: %v", err)
		os.Exit(1)
	}
}
