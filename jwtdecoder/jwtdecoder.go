// Package jwtdecoder decodes signed JWT bearer tokens into tickets. It
// performs signature and issuer verification only; expiration and audience
// enforcement belong to the validation engine consuming the ticket, so the
// decoder surfaces them as ticket properties instead of rejecting.
//
// Three key sources are provided: OIDC discovery (NewFromDiscovery), a
// static JWKS endpoint (NewStatic), and a JWKS document on disk that is
// hot-reloaded on change (NewFromKeyFile).
package jwtdecoder

import (
	"context"
	"errors"
	"fmt"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tokenward/bearer-go/internal/claimset"
	"github.com/tokenward/bearer-go/ticket"
)

// Config controls decode behavior shared by all key sources.
type Config struct {
	// AllowedAlgs restricts accepted JWS algorithms. "none" is never
	// allowed. Defaults to ["RS256"].
	AllowedAlgs []string

	// RequireSubject rejects tokens without a "sub" claim. Default true.
	RequireSubject bool

	// Leeway extends the ticket's expiration by the given duration to
	// tolerate clock skew between issuer and this process. The validation
	// engine itself applies no skew.
	Leeway time.Duration
}

// DefaultConfig returns a Config with safe defaults.
func DefaultConfig() *Config {
	return &Config{AllowedAlgs: []string{"RS256"}, RequireSubject: true}
}

// Option configures optional aspects of a decoder.
type Option func(*Config)

// WithAllowedAlgs restricts allowed JWS algorithms. Defaults to ["RS256"].
func WithAllowedAlgs(algs ...string) Option {
	return func(c *Config) { c.AllowedAlgs = append([]string(nil), algs...) }
}

// WithoutSubject accepts tokens that carry no "sub" claim.
func WithoutSubject() Option {
	return func(c *Config) { c.RequireSubject = false }
}

// WithLeeway sets clock skew tolerance applied to the decoded expiration.
func WithLeeway(d time.Duration) Option {
	return func(c *Config) { c.Leeway = d }
}

// Decoder verifies JWT signatures against a key source and maps the claim
// set into a ticket. It is immutable after construction and safe for
// concurrent use.
type Decoder struct {
	cfg     *Config
	issuer  string
	keyfunc jwt.Keyfunc
}

func newDecoder(cfg *Config, issuer string, kf jwt.Keyfunc) *Decoder {
	return &Decoder{cfg: cfg, issuer: issuer, keyfunc: func(t *jwt.Token) (any, error) {
		// Enforce allowed algs before any key lookup.
		alg := t.Method.Alg()
		for _, a := range cfg.AllowedAlgs {
			if alg == a {
				return kf(t)
			}
		}
		return nil, fmt.Errorf("disallowed alg: %s", alg)
	}}
}

// NewFromDiscovery resolves the issuer's jwks_uri via OpenID Connect
// discovery and returns a Decoder with auto-refreshing JWKS.
func NewFromDiscovery(ctx context.Context, issuer string, opts ...Option) (*Decoder, error) {
	if issuer == "" {
		return nil, errors.New("issuer is required")
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}
	var meta struct {
		JwksURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("invalid discovery metadata: %w", err)
	}
	if meta.JwksURI == "" {
		return nil, errors.New("discovery incomplete: missing jwks_uri")
	}

	// Auto-refreshing JWKS
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{meta.JwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return newDecoder(cfg, issuer, kf.Keyfunc), nil
}

// Unprotect verifies the token's signature and issuer and returns the claim
// set as a ticket. Any verification failure is terminal for this attempt;
// the caller treats it as an undecodable token.
func (d *Decoder) Unprotect(ctx context.Context, token string) (*ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("empty token")
	}

	// Claims validation (exp, aud, nbf) is deliberately skipped: those
	// checks run in the validation engine against the ticket's properties.
	parser := jwt.NewParser(
		jwt.WithValidMethods(d.cfg.AllowedAlgs),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.Parse(token, d.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("token parse/verify failed: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	if iss, _ := claims["iss"].(string); iss == "" || iss != d.issuer {
		return nil, errors.New("issuer mismatch")
	}
	if d.cfg.RequireSubject {
		if sub, _ := claims["sub"].(string); sub == "" {
			return nil, errors.New("missing sub")
		}
	}

	t := claimset.ToTicket(claims)
	if t.Properties.ExpiresAt != nil && d.cfg.Leeway > 0 {
		exp := t.Properties.ExpiresAt.Add(d.cfg.Leeway)
		t.Properties.ExpiresAt = &exp
	}
	return t, nil
}
