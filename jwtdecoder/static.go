package jwtdecoder

import (
	"context"
	"errors"
	"fmt"

	keyfunc "github.com/MicahParks/keyfunc/v3"
)

// NewStatic constructs a Decoder that verifies tokens against a statically
// configured JWKS endpoint (no discovery). Keys are auto-refreshed in the
// background until ctx is canceled.
func NewStatic(ctx context.Context, issuer string, jwksURI string, opts ...Option) (*Decoder, error) {
	if issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if jwksURI == "" {
		return nil, errors.New("jwks uri required")
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return newDecoder(cfg, issuer, kf.Keyfunc), nil
}
