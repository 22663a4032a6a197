package jwtdecoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// NewFromKeyFile constructs a Decoder that verifies tokens against a JWKS
// document on disk. The file is re-read whenever it changes, so rotating
// keys is a file write away; in-flight requests keep the set they started
// with. Watching stops when ctx is canceled.
func NewFromKeyFile(ctx context.Context, issuer string, path string, opts ...Option) (*Decoder, error) {
	if issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if path == "" {
		return nil, errors.New("key file path required")
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve key file path: %w", err)
	}
	ks := &fileKeySet{path: abs}
	if err := ks.reload(); err != nil {
		return nil, fmt.Errorf("load key file: %w", err)
	}
	go ks.watch(ctx)
	return newDecoder(cfg, issuer, ks.keyfunc), nil
}

// fileKeySet holds the most recently loaded JWKS. Reloads swap the whole
// set under the lock; lookups hold it only long enough to copy a key.
type fileKeySet struct {
	path string

	mu   sync.RWMutex
	keys jose.JSONWebKeySet
}

func (ks *fileKeySet) reload() error {
	b, err := os.ReadFile(ks.path)
	if err != nil {
		return err
	}
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(b, &set); err != nil {
		return fmt.Errorf("parse jwks: %w", err)
	}
	if len(set.Keys) == 0 {
		return errors.New("jwks has no keys")
	}
	ks.mu.Lock()
	ks.keys = set
	ks.mu.Unlock()
	return nil
}

func (ks *fileKeySet) keyfunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if kid != "" {
		if matches := ks.keys.Key(kid); len(matches) > 0 {
			return matches[0].Key, nil
		}
		return nil, fmt.Errorf("no key for kid %q", kid)
	}
	if len(ks.keys.Keys) == 1 {
		return ks.keys.Keys[0].Key, nil
	}
	return nil, errors.New("token has no kid and key set is ambiguous")
}

func (ks *fileKeySet) watch(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Debug("fsnotify unavailable", slog.String("err", err.Error()))
		return
	}
	defer func() {
		// Best-effort watcher close; no actionable error handling path.
		_ = w.Close()
	}()

	// Watch the directory, not the file: editors and rotation tooling
	// replace the file by rename, which would silently drop a file watch.
	if err := w.Add(filepath.Dir(ks.path)); err != nil {
		slog.Debug("fsnotify add dir failed", slog.String("err", err.Error()))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != ks.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) == 0 {
				continue
			}
			if err := ks.reload(); err != nil {
				// Keep serving the previous set on a bad write.
				slog.Debug("jwks reload failed", slog.String("path", ks.path), slog.String("err", err.Error()))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Debug("fsnotify error", slog.String("err", err.Error()))
		}
	}
}
