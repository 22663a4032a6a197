// Package jwedecoder decodes encrypted (JWE) bearer tokens into tickets.
// It is the data-protector flavor of token: the holder cannot read or alter
// the claim set, only the key holder can unprotect it. Like the JWT
// decoder, it performs no expiration or audience enforcement itself.
package jwedecoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/tokenward/bearer-go/internal/claimset"
	"github.com/tokenward/bearer-go/ticket"
)

// Option configures optional aspects of the decoder.
type Option func(*Decoder)

// WithKeyAlgorithms restricts accepted JWE key management algorithms.
// Defaults to direct symmetric encryption (dir).
func WithKeyAlgorithms(algs ...jose.KeyAlgorithm) Option {
	return func(d *Decoder) { d.keyAlgs = append([]jose.KeyAlgorithm(nil), algs...) }
}

// WithContentEncryption restricts accepted content encryption algorithms.
// Defaults to A256GCM.
func WithContentEncryption(encs ...jose.ContentEncryption) Option {
	return func(d *Decoder) { d.encs = append([]jose.ContentEncryption(nil), encs...) }
}

// Decoder decrypts compact JWE tokens with fixed key material. It is
// immutable after construction and safe for concurrent use.
type Decoder struct {
	key     any
	keyAlgs []jose.KeyAlgorithm
	encs    []jose.ContentEncryption
}

// New constructs a Decoder around decryption key material: a symmetric key
// ([]byte) for dir/AES key wrap algorithms, or a private key for asymmetric
// ones.
func New(key any, opts ...Option) (*Decoder, error) {
	if key == nil {
		return nil, errors.New("jwedecoder: key is required")
	}
	d := &Decoder{
		key:     key,
		keyAlgs: []jose.KeyAlgorithm{jose.DIRECT},
		encs:    []jose.ContentEncryption{jose.A256GCM},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Unprotect decrypts the token and returns its claim set as a ticket. A
// token encrypted under different key material, a foreign algorithm, or a
// non-JSON payload all fail the same way: no ticket.
func (d *Decoder) Unprotect(ctx context.Context, token string) (*ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("empty token")
	}
	obj, err := jose.ParseEncrypted(token, d.keyAlgs, d.encs)
	if err != nil {
		return nil, fmt.Errorf("parse jwe: %w", err)
	}
	plaintext, err := obj.Decrypt(d.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt failed: %w", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(plaintext, &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claimset.ToTicket(claims), nil
}
