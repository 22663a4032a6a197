package bearer

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tokenward/bearer-go/internal/logctx"
)

const authorizationHeader = "Authorization"

// Middleware sequences bearer token validation within the request lifecycle.
// Validation runs eagerly before the downstream handler in both modes
// (decoding is cheap and side-effect free); rejection is deferred to
// response time so downstream logic decides whether an authenticated user
// was actually required.
//
// A Middleware is immutable and safe for concurrent use across any number of
// in-flight requests; the only per-request state lives in the request's own
// context.
type Middleware struct {
	v     *Validator
	mode  Mode
	realm string
}

// New builds a Middleware around the given decoder. The decoder is required.
func New(dec Decoder, opts ...Option) (*Middleware, error) {
	c := newConfig(opts...)
	v, err := NewValidator(dec, opts...)
	if err != nil {
		return nil, err
	}
	return &Middleware{v: v, mode: c.mode, realm: c.realm}, nil
}

// Validator returns the decision engine the middleware runs per request.
func (m *Middleware) Validator() *Validator { return m.v }

// Wrap returns a handler that authenticates the request, attaches any
// resulting identity to request-scoped authentication state, and converts a
// pending challenge into a 401 Bearer response at response time.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
			RequestID:  uuid.NewString(),
			Method:     r.Method,
			Path:       r.URL.Path,
			UserAgent:  r.UserAgent(),
			RemoteAddr: r.RemoteAddr,
		})
		ctx, st := ensureAuthState(ctx)

		res := m.v.Validate(ctx, r.Header.Get(authorizationHeader))
		if res.Authenticated() {
			st.attach(res.Identity)
			ctx = logctx.WithAuthData(ctx, &logctx.AuthData{
				Scheme:  bearerScheme,
				Subject: res.Identity.Name(),
			})
		} else {
			st.setReason(res.Reason)
			ctx = logctx.WithAuthData(ctx, &logctx.AuthData{
				Scheme: bearerScheme,
				Reason: string(res.Reason),
			})
		}

		cw := &challengeWriter{ResponseWriter: w, st: st, mode: m.mode, realm: m.realm}
		next.ServeHTTP(cw, r.WithContext(ctx))
		cw.finish(r)
	})
}
