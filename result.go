package bearer

import "github.com/tokenward/bearer-go/ticket"

// Reason explains why a validation attempt left the request unauthenticated.
// All reasons are expected, non-fatal, request-local outcomes: they are data,
// not errors.
type Reason string

const (
	// ReasonNoToken means no usable bearer credential was present: missing
	// Authorization header, wrong scheme, or a malformed header value.
	// Anonymous requests are normal; this is not a failure.
	ReasonNoToken Reason = "no_token"

	// ReasonDecodeFailure means the decoder could not resolve the token.
	ReasonDecodeFailure Reason = "decode_failure"

	// ReasonExpired means the decoded ticket's expiration is at or before
	// the clock's current time.
	ReasonExpired Reason = "expired"

	// ReasonAudienceMismatch means a required audience is configured and the
	// ticket does not declare it.
	ReasonAudienceMismatch Reason = "audience_mismatch"
)

// Result is the tagged outcome of one validation pass: either an
// authenticated identity or an unauthenticated reason.
type Result struct {
	// Identity is set only when authentication succeeded.
	Identity ticket.Identity

	// Reason is empty on success and names the failed check otherwise.
	Reason Reason
}

// Authenticated reports whether the validation pass produced an identity.
func (r Result) Authenticated() bool { return r.Reason == "" }
