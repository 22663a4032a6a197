// Package bearertest provides deterministic test doubles for bearer token
// authentication: a decoder backed by a fixed token-to-ticket table and a
// clock that only moves when told to.
package bearertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tokenward/bearer-go/ticket"
)

// ErrUnknownToken is returned by Decoder for tokens it has no ticket for.
var ErrUnknownToken = errors.New("bearertest: unknown token")

// Decoder resolves tokens against a fixed table. Unknown tokens fail to
// decode, which is exactly how an opaque production decoder behaves for
// corrupt or foreign tokens.
type Decoder struct {
	mu      sync.RWMutex
	tickets map[string]*ticket.Ticket
}

// NewDecoder returns an empty Decoder; seed it with Add.
func NewDecoder() *Decoder {
	return &Decoder{tickets: make(map[string]*ticket.Ticket)}
}

// Add registers the ticket the given token decodes to.
func (d *Decoder) Add(token string, t *ticket.Ticket) *Decoder {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tickets[token] = t
	return d
}

// Unprotect implements the decoder contract.
func (d *Decoder) Unprotect(ctx context.Context, token string) (*ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tickets[token]
	if !ok {
		return nil, ErrUnknownToken
	}
	return t, nil
}

// Clock is a manually advanced clock.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a Clock frozen at the given instant.
func NewClock(at time.Time) *Clock {
	return &Clock{t: at}
}

// Now returns the frozen instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward (or backward, with a negative duration).
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
