// Package revoke adds token revocation to any decoder. Revocation is a
// decoder-side policy: the wrapped decoder consults a revocation list after
// a successful decode and withholds the ticket for revoked token IDs, so
// the validation engine never learns revocation exists.
package revoke

import (
	"context"
	"errors"
	"fmt"

	bearer "github.com/tokenward/bearer-go"
	"github.com/tokenward/bearer-go/ticket"
)

// List reports whether a token ID ("jti" claim) has been revoked.
type List interface {
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// Decoder wraps an inner decoder with a revocation check.
type Decoder struct {
	inner bearer.Decoder
	list  List
	claim string
}

// DecoderOption configures the wrapping decoder.
type DecoderOption func(*Decoder)

// WithIDClaim changes which claim carries the token ID. Default "jti".
func WithIDClaim(claim string) DecoderOption {
	return func(d *Decoder) { d.claim = claim }
}

// Wrap returns a decoder that decodes with inner, then drops tickets whose
// token ID appears on the list. Tickets without a token ID claim pass
// through untouched.
func Wrap(inner bearer.Decoder, list List, opts ...DecoderOption) (*Decoder, error) {
	if inner == nil {
		return nil, errors.New("revoke: inner decoder is required")
	}
	if list == nil {
		return nil, errors.New("revoke: list is required")
	}
	d := &Decoder{inner: inner, list: list, claim: ticket.ClaimTokenID}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Unprotect implements the decoder contract.
func (d *Decoder) Unprotect(ctx context.Context, token string) (*ticket.Ticket, error) {
	t, err := d.inner.Unprotect(ctx, token)
	if err != nil || t == nil {
		return nil, err
	}
	id := t.Identity.First(d.claim)
	if id == "" {
		return t, nil
	}
	revoked, err := d.list.Revoked(ctx, id)
	if err != nil {
		// Fail closed: an unreachable list must not admit revoked tokens.
		return nil, fmt.Errorf("revocation check failed: %w", err)
	}
	if revoked {
		return nil, errors.New("token revoked")
	}
	return t, nil
}

var _ bearer.Decoder = (*Decoder)(nil)
