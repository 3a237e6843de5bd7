package gate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/m3ux/internal/shared"
)

// DigestStore persists the last-seen digest.
type DigestStore interface {
	// Load returns the stored digest, or ok=false when none has been stored.
	Load(ctx context.Context) (digest string, ok bool, err error)
	// Store overwrites the stored digest.
	Store(ctx context.Context, digest string) error
	// Reset removes the stored digest so the next run always processes.
	Reset(ctx context.Context) error
}

// Digest returns the lowercase hex MD5 of raw.
func Digest(raw string) string {
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Gate wraps a [DigestStore] with the run/skip decision.
type Gate struct {
	store  DigestStore
	logger *log.Logger
}

// New creates a Gate. A nil logger discards output.
func New(store DigestStore, logger *log.Logger) *Gate {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Gate{store: store, logger: logger}
}

// ShouldRun reports whether raw differs from the last committed input.
//
// It returns true when nothing is stored, when the digests differ, or when the store
// cannot be read.
func (g *Gate) ShouldRun(ctx context.Context, raw string) bool {
	current := Digest(raw)

	previous, ok, err := g.store.Load(ctx)
	switch {
	case err != nil:
		g.logger.Warn("could not read stored digest, processing anyway", "error", err)
		return true
	case !ok:
		g.logger.Info("no stored digest, first run")
		return true
	case previous == current:
		g.logger.Info("source unchanged", "digest", shared.ShortDigest(current))
		return false
	default:
		g.logger.Info("source changed", "old", shared.ShortDigest(previous), "new", shared.ShortDigest(current))
		return true
	}
}

// Commit stores the digest of raw.
func (g *Gate) Commit(ctx context.Context, raw string) error {
	if err := g.store.Store(ctx, Digest(raw)); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrDigestStore, err)
	}
	return nil
}

// Stored returns the stored digest, if any.
func (g *Gate) Stored(ctx context.Context) (string, bool, error) {
	return g.store.Load(ctx)
}

// Reset clears the stored digest.
func (g *Gate) Reset(ctx context.Context) error {
	if err := g.store.Reset(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrDigestStore, err)
	}
	return nil
}
