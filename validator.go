package bearer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// Mode controls when the middleware converts a failed validation into a 401
// challenge.
type Mode int

const (
	// ModeActive (the default) decorates any downstream 401 response from an
	// unauthenticated request with a Bearer challenge.
	ModeActive Mode = iota

	// ModePassive validates eagerly like ModeActive but only challenges when
	// downstream explicitly requested one via Challenge.
	ModePassive
)

type config struct {
	audiences []string
	clock     Clock
	logger    *slog.Logger
	mode      Mode
	realm     string
}

// Option configures a Validator or Middleware.
type Option func(*config)

// WithAudience requires the decoded ticket to declare the given audience.
// Comparison is exact: case-sensitive, no normalization, no wildcards. May be
// given more than once; a ticket matching any configured audience passes
// (match-any).
func WithAudience(audience string) Option {
	return func(c *config) { c.audiences = append(c.audiences, audience) }
}

// WithClock overrides the wall clock used for expiration checks.
func WithClock(clock Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithLogger sets the slog logger. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMode selects Active or Passive challenge behavior. Validators ignore
// this; it only affects the Middleware.
func WithMode(m Mode) Option {
	return func(c *config) { c.mode = m }
}

// WithRealm sets the HTTP authentication realm advertised in WWW-Authenticate
// challenges. If empty (default), the realm attribute is omitted entirely per
// RFC 6750 (it is optional) keeping challenges concise.
func WithRealm(realm string) Option {
	return func(c *config) { c.realm = strings.TrimSpace(realm) }
}

func newConfig(opts ...Option) config {
	c := config{clock: systemClock{}}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Validator is the per-request authentication decision engine. It is
// immutable after construction and safe for unlimited concurrent use: every
// Validate call is independent and carries no state between requests.
type Validator struct {
	dec       Decoder
	clock     Clock
	audiences []string
	log       *slog.Logger
}

// NewValidator builds a Validator. The decoder is required; a nil decoder is
// a construction error, never a request-time surprise.
func NewValidator(dec Decoder, opts ...Option) (*Validator, error) {
	if dec == nil {
		return nil, errors.New("bearer: decoder is required")
	}
	c := newConfig(opts...)
	return &Validator{
		dec:       dec,
		clock:     c.clock,
		audiences: append([]string(nil), c.audiences...),
		log:       c.logger,
	}, nil
}

// Validate runs the decision sequence against a raw Authorization header
// value: extract, decode, expiration, audience. Each check short-circuits.
// Given the same header, decoder key state, clock reading and configuration,
// Validate always produces the same Result.
func (v *Validator) Validate(ctx context.Context, authorization string) Result {
	tok, ok := ExtractToken(authorization)
	if !ok {
		v.log.DebugContext(ctx, "auth.check.missing")
		return Result{Reason: ReasonNoToken}
	}

	t, err := v.dec.Unprotect(ctx, tok)
	if err != nil || t == nil {
		if err != nil {
			v.log.InfoContext(ctx, "auth.check.fail", slog.String("err", err.Error()))
		} else {
			v.log.InfoContext(ctx, "auth.check.fail", slog.String("err", "decoder returned no ticket"))
		}
		return Result{Reason: ReasonDecodeFailure}
	}

	// Strictly earlier-or-equal counts as expired; no grace skew here. A
	// decoder wanting leeway bakes it into ExpiresAt.
	if exp := t.Properties.ExpiresAt; exp != nil && !exp.After(v.clock.Now()) {
		v.log.InfoContext(ctx, "auth.check.fail", slog.String("err", "ticket expired"))
		return Result{Reason: ReasonExpired}
	}

	// The audience check runs only when an audience is configured; without
	// one the ticket's own audience claims are irrelevant.
	if len(v.audiences) > 0 && !audIntersects(t.Properties.Audiences, v.audiences) {
		v.log.InfoContext(ctx, "auth.check.fail", slog.String("err", "audience mismatch"))
		return Result{Reason: ReasonAudienceMismatch}
	}

	v.log.DebugContext(ctx, "auth.check.ok", slog.String("sub", t.Identity.Name()))
	return Result{Identity: t.Identity}
}

func audIntersects(declared, wanted []string) bool {
	for _, w := range wanted {
		for _, d := range declared {
			if d == w {
				return true
			}
		}
	}
	return false
}
