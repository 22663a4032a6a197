// Package ticket defines the decoded representation of a bearer token: an
// identity made of ordered, repeatable claims plus validation-relevant
// properties (expiration, audience restrictions).
//
// A Ticket is owned by the single request whose token produced it. It is a
// plain value with no hidden state and must never be cached across requests.
package ticket

import "time"

// Well-known claim types. These mirror the registered JWT claim names where
// one exists; decoders are free to emit additional types.
const (
	ClaimSubject = "sub"
	ClaimName    = "name"
	ClaimRole    = "role"
	ClaimTokenID = "jti"
)

// Claim is a single typed fact about the authenticated subject.
type Claim struct {
	Type  string
	Value string
}

// Identity is an ordered multimap of claims. Types may repeat (e.g. multiple
// role claims); insertion order is preserved.
type Identity []Claim

// Add appends a claim, preserving order.
func (id Identity) Add(typ, value string) Identity {
	return append(id, Claim{Type: typ, Value: value})
}

// Get returns every value carried for the given claim type, in order.
func (id Identity) Get(typ string) []string {
	var vals []string
	for _, c := range id {
		if c.Type == typ {
			vals = append(vals, c.Value)
		}
	}
	return vals
}

// First returns the first value for the given claim type, or "" if absent.
func (id Identity) First(typ string) string {
	for _, c := range id {
		if c.Type == typ {
			return c.Value
		}
	}
	return ""
}

// Name returns the display name of the subject: the first name claim, falling
// back to the subject claim.
func (id Identity) Name() string {
	if n := id.First(ClaimName); n != "" {
		return n
	}
	return id.First(ClaimSubject)
}

// Properties carries the validation-relevant metadata of a decoded token.
type Properties struct {
	// ExpiresAt is the instant at (and after) which the ticket is expired.
	// Nil means the ticket never expires by the expiration check.
	ExpiresAt *time.Time

	// Audiences is the set of recipients the token was issued for. May be
	// empty or nil; it only matters when the validator is configured with a
	// required audience.
	Audiences []string
}

// HasAudience reports whether the given audience is among the declared
// audiences. Comparison is exact: case-sensitive, no normalization, no
// wildcards.
func (p Properties) HasAudience(aud string) bool {
	for _, a := range p.Audiences {
		if a == aud {
			return true
		}
	}
	return false
}

// Ticket is the decoded form of a bearer token.
type Ticket struct {
	Identity   Identity
	Properties Properties
}
