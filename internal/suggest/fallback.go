package suggest

import (
	"context"
	"log/slog"
	"time"
)

// Fallback composes a remote source with the local generator: the remote is
// tried with a bounded timeout and any error degrades to the local path.
// Remote failures are logged, never re-raised; Generate cannot fail.
type Fallback struct {
	remote  Source
	local   LocalSource
	timeout time.Duration
	logger  *slog.Logger
}

// NewFallback wraps remote (nil means local only) with the given timeout.
func NewFallback(remote Source, timeout time.Duration, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fallback{remote: remote, timeout: timeout, logger: logger}
}

// Generate produces a payload, preferring the remote model.
func (f *Fallback) Generate(ctx context.Context, description string) (Payload, error) {
	if f.remote != nil {
		remoteCtx, cancel := context.WithTimeout(ctx, f.timeout)
		payload, err := f.remote.Generate(remoteCtx, description)
		cancel()
		if err == nil {
			return payload, nil
		}
		f.logger.Warn("remote suggestion failed, using local generator", slog.String("error", err.Error()))
	}
	return f.local.Generate(ctx, description)
}
