// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the process-lifetime, immutable settings a supervisor
// hands the helper server at startup (§3, §6.1). It never changes after
// Server construction.
type Config struct {
	RootDir            string
	InterpreterPath    string
	LogLevel           int
	MaxPoolSize        int
	MaxInstancesPerApp int
	PoolIdleTime       time.Duration
}

// NumWorkers is the fixed cardinality of the worker set (§3): 4x
// maxPoolSize, chosen once at startup and never changed at runtime.
func (c Config) NumWorkers() int { return 4 * c.MaxPoolSize }

// ParseArgs parses the seven positional arguments described in §6.1 —
// root-directory, interpreter-path, admin-pipe-fd, log-level,
// max-pool-size, max-instances-per-app, pool-idle-time-seconds — the
// same way hemi/procman/worker/worker.go's Main(token) parses its own
// positional token rather than reaching for a flag/config library: this
// is a process-invocation shim, not the full engine's .conf DSL
// (hemi/config.go), and no repository in the retrieved corpus uses a
// CLI/config library for this kind of shim.
//
// It returns the parsed Config and the admin channel, opened from the
// inherited file descriptor named by the third argument.
func ParseArgs(args []string) (Config, *os.File, error) {
	const nArgs = 7
	if len(args) != nArgs {
		return Config{}, nil, fmt.Errorf("helperserver: expected %d arguments, got %d", nArgs, len(args))
	}

	fd, err := strconv.Atoi(args[2])
	if err != nil {
		return Config{}, nil, fmt.Errorf("helperserver: bad admin-pipe-fd %q: %w", args[2], err)
	}
	logLevel, err := strconv.Atoi(args[3])
	if err != nil {
		return Config{}, nil, fmt.Errorf("helperserver: bad log-level %q: %w", args[3], err)
	}
	maxPoolSize, err := strconv.Atoi(args[4])
	if err != nil || maxPoolSize <= 0 {
		return Config{}, nil, fmt.Errorf("helperserver: bad max-pool-size %q", args[4])
	}
	maxInstancesPerApp, err := strconv.Atoi(args[5])
	if err != nil || maxInstancesPerApp <= 0 {
		return Config{}, nil, fmt.Errorf("helperserver: bad max-instances-per-app %q", args[5])
	}
	poolIdleSeconds, err := strconv.Atoi(args[6])
	if err != nil || poolIdleSeconds < 0 {
		return Config{}, nil, fmt.Errorf("helperserver: bad pool-idle-time-seconds %q", args[6])
	}

	cfg := Config{
		RootDir:            args[0],
		InterpreterPath:    args[1],
		LogLevel:           logLevel,
		MaxPoolSize:        maxPoolSize,
		MaxInstancesPerApp: maxInstancesPerApp,
		PoolIdleTime:       time.Duration(poolIdleSeconds) * time.Second,
	}
	adminChannel := os.NewFile(uintptr(fd), "admin-pipe")
	return cfg, adminChannel, nil
}
