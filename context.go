package bearer

import (
	"context"
	"sync"

	"github.com/tokenward/bearer-go/ticket"
)

type authStateKey struct{}

// authState is the per-request authentication record. It is created once per
// request (or reused when an outer scheme already created one) and threaded
// through the request context; it is the only mutable state in this package
// and never outlives its request.
type authState struct {
	mu         sync.Mutex
	identities []ticket.Identity
	challenged bool
	reason     Reason
}

func (s *authState) attach(id ticket.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = append(s.identities, id)
}

func (s *authState) authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.identities) > 0
}

func (s *authState) all() []ticket.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ticket.Identity(nil), s.identities...)
}

func (s *authState) challenge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenged = true
}

func (s *authState) challengeRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenged
}

func (s *authState) setReason(r Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reason = r
}

func (s *authState) failureReason() Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// ensureAuthState returns the request's authentication record, creating one
// only when no outer middleware has already. Reuse is what makes identity
// attachment additive across layered schemes.
func ensureAuthState(ctx context.Context) (context.Context, *authState) {
	if st, ok := ctx.Value(authStateKey{}).(*authState); ok {
		return ctx, st
	}
	st := &authState{}
	return context.WithValue(ctx, authStateKey{}, st), st
}

func stateFrom(ctx context.Context) *authState {
	st, _ := ctx.Value(authStateKey{}).(*authState)
	return st
}

// IdentityFromContext returns the first identity attached to the request's
// authentication state, if any.
func IdentityFromContext(ctx context.Context) (ticket.Identity, bool) {
	st := stateFrom(ctx)
	if st == nil {
		return nil, false
	}
	ids := st.all()
	if len(ids) == 0 {
		return nil, false
	}
	return ids[0], true
}

// Identities returns every identity attached to the request's authentication
// state, in attachment order. Several authentication schemes may each attach
// one; the composite is the request's principal.
func Identities(ctx context.Context) []ticket.Identity {
	st := stateFrom(ctx)
	if st == nil {
		return nil
	}
	return st.all()
}

// AttachIdentity adds an identity to the request's authentication state.
// Attachment is additive: it never displaces identities other schemes
// already attached. It is a no-op outside a request wrapped by a Middleware
// (or another scheme that created the shared state).
func AttachIdentity(ctx context.Context, id ticket.Identity) {
	if st := stateFrom(ctx); st != nil {
		st.attach(id)
	}
}

// Challenge signals that the current request required an authenticated user
// and none was present. If the request still has no identity at response
// time, the middleware answers with 401 and a Bearer challenge. Calling it
// more than once is harmless.
func Challenge(ctx context.Context) {
	if st := stateFrom(ctx); st != nil {
		st.challenge()
	}
}
