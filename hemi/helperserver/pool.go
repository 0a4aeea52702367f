// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"context"
	"io"
	"time"
)

// PoolOptions is assembled from request headers before leasing a session
// (§4.5 step 4, §6.2).
type PoolOptions struct {
	// AppRoot is the canonicalised DOCUMENT_ROOT/.. directory identifying
	// which application the backend belongs to.
	AppRoot string
	// UseGlobalQueue is true when PASSENGER_USE_GLOBAL_QUEUE == "true".
	UseGlobalQueue bool
	// Environment is the opaque PASSENGER_ENVIRONMENT header value.
	Environment string
	// SpawnMethod is the opaque PASSENGER_SPAWN_METHOD header value.
	SpawnMethod string
}

// Pool is the application-pool collaborator described in §6.3. Spawning,
// caching, and idle-eviction of backend processes are explicitly out of
// scope for this package (§1 Non-goals) — Pool is the seam a real pool
// implementation plugs into; this package only ever calls it.
type Pool interface {
	// Get leases a backend session; an implementation may block until one
	// is available. It returns a *SpawnError if no backend could be
	// started for opts (processPool also does so, without blocking, when
	// its SetMax limit is reached).
	Get(ctx context.Context, opts PoolOptions) (Session, error)

	SetMax(n int)
	SetMaxPerApp(n int)
	SetMaxIdleTime(d time.Duration)
}

// Session is a leased handle to one backend's stdin/stdout streams
// (§6.3). Release must be called exactly once, regardless of how the
// request handling ended, to return the backend to the pool.
type Session interface {
	SendHeaders(block []byte) error
	SendBodyBlock(chunk []byte) error
	ShutdownWriter() error
	Stream() io.Reader
	Release()
}

// SpawnError is returned by Pool.Get when no backend could be started
// for the requested application (§4.6, §7 "Spawn failure").
type SpawnError struct {
	// Message is always present and safe to show to the client.
	Message string
	// ErrorPage, if non-empty, is pre-rendered HTML that should be sent
	// to the client instead of Message.
	ErrorPage string
}

func (e *SpawnError) Error() string { return e.Message }

// Page returns the body to send for this spawn failure and whether it
// is the (richer) pre-rendered error page rather than the plain message.
func (e *SpawnError) Page() (body string, isPage bool) {
	if e.ErrorPage != "" {
		return e.ErrorPage, true
	}
	return e.Message, false
}
