// Package binding maintains the many-to-many associations between video
// sources and device tokens. The binding list for a source lives in the
// keyed store; concurrent mutations on the same source are serialized with
// compare-and-swap so no update is silently lost.
package binding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/facegate/facegate/internal/domain"
	"github.com/facegate/facegate/internal/store"
)

const (
	keyPrefix = "stream-bindings:"

	// maxSwapAttempts bounds the CAS retry loop; each attempt only loses
	// to another writer on the same source key.
	maxSwapAttempts = 16

	pruneTimeout = 5 * time.Second
)

// DeviceLookup resolves a bound token to a registered device.
type DeviceLookup interface {
	GetByToken(ctx context.Context, token string) (*domain.Device, error)
}

type Directory struct {
	store   store.KeyedStore
	devices DeviceLookup
	logger  *slog.Logger
}

func NewDirectory(kv store.KeyedStore, devices DeviceLookup, logger *slog.Logger) *Directory {
	return &Directory{
		store:   kv,
		devices: devices,
		logger:  logger,
	}
}

// Bind associates token with source. Idempotent: binding an already bound
// token is a no-op.
func (d *Directory) Bind(ctx context.Context, token, source string) error {
	_, err := d.mutate(ctx, source, func(tokens []string) ([]string, bool) {
		for _, t := range tokens {
			if t == token {
				return tokens, false
			}
		}
		return append(tokens, token), true
	})
	if err != nil {
		return fmt.Errorf("bind %s to %s: %w", token, source, err)
	}
	return nil
}

// Unbind removes token from source and returns the remaining set. Unbinding
// a token that is not bound is a no-op, not an error.
func (d *Directory) Unbind(ctx context.Context, token, source string) ([]string, error) {
	remaining, err := d.mutate(ctx, source, func(tokens []string) ([]string, bool) {
		for i, t := range tokens {
			if t == token {
				return append(tokens[:i:i], tokens[i+1:]...), true
			}
		}
		return tokens, false
	})
	if err != nil {
		return nil, fmt.Errorf("unbind %s from %s: %w", token, source, err)
	}
	return remaining, nil
}

// Tokens returns the raw token set bound to source. A source with no
// bindings yields an empty set.
func (d *Directory) Tokens(ctx context.Context, source string) ([]string, error) {
	tokens, _, err := d.load(ctx, source)
	return tokens, err
}

// Resolve looks up every device bound to source. Tokens whose lookup fails
// are excluded from the result and pruned from the binding in the
// background; resolution is always partial, never all-or-nothing. An empty
// result is valid and means there is nothing to do.
func (d *Directory) Resolve(ctx context.Context, source string) ([]*domain.Device, error) {
	tokens, _, err := d.load(ctx, source)
	if err != nil {
		return nil, err
	}

	devices := make([]*domain.Device, 0, len(tokens))
	for _, token := range tokens {
		device, err := d.devices.GetByToken(ctx, token)
		if err != nil {
			d.logger.Warn("bound device unresolvable, pruning binding",
				"token", token,
				"source", source,
				"error", err,
			)
			d.pruneAsync(token, source)
			continue
		}
		devices = append(devices, device)
	}
	return devices, nil
}

// pruneAsync removes a dead token from the binding best-effort; failures
// only mean the token is pruned on a later resolve.
func (d *Directory) pruneAsync(token, source string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()

		if _, err := d.Unbind(ctx, token, source); err != nil {
			d.logger.Warn("failed to prune stale binding",
				"token", token,
				"source", source,
				"error", err,
			)
		}
	}()
}

// load reads the token list and the raw bytes it was decoded from; the raw
// bytes are the CAS expectation for a subsequent swap. Raw is nil when the
// key is absent.
func (d *Directory) load(ctx context.Context, source string) ([]string, []byte, error) {
	raw, err := d.store.Get(ctx, keyPrefix+source)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return []string{}, nil, nil
		}
		return nil, nil, fmt.Errorf("read bindings for %s: %w", source, err)
	}

	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, nil, fmt.Errorf("decode bindings for %s: %w", source, err)
	}
	return tokens, raw, nil
}

// mutate applies fn to the current token set under CAS, retrying while other
// writers win the swap. fn reports whether anything changed; unchanged sets
// are not written back.
func (d *Directory) mutate(ctx context.Context, source string, fn func([]string) ([]string, bool)) ([]string, error) {
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tokens, raw, err := d.load(ctx, source)
		if err != nil {
			return nil, err
		}

		next, changed := fn(tokens)
		if !changed {
			return next, nil
		}

		value, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encode bindings: %w", err)
		}

		err = d.store.CompareAndSwap(ctx, keyPrefix+source, raw, value)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, store.ErrSwapConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("binding update for %s kept losing the swap", source)
}
