package bearer

import (
	"context"
	"time"

	"github.com/tokenward/bearer-go/ticket"
)

// Decoder turns a raw bearer token into a ticket. It is the single opaque
// capability this package consumes: the validator never learns why a decode
// failed (corrupt, tampered, unknown format, rotated key) and never retries.
//
// Implementations signal failure by returning a nil ticket or an error; both
// collapse to the same decode-failure outcome. Implementations that block
// (e.g. resolving remote key material) must honor ctx cancellation so no
// decode work outlives an abandoned request.
type Decoder interface {
	Unprotect(ctx context.Context, token string) (*ticket.Ticket, error)
}

// DecoderFunc adapts a plain function into a Decoder.
type DecoderFunc func(ctx context.Context, token string) (*ticket.Ticket, error)

// Unprotect implements Decoder.
func (f DecoderFunc) Unprotect(ctx context.Context, token string) (*ticket.Ticket, error) {
	return f(ctx, token)
}

// Clock supplies the current time for expiration checks. The wall clock is
// used unless overridden via WithClock (typically in tests).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
