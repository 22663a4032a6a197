package bearer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tokenward/bearer-go/bearertest"
	"github.com/tokenward/bearer-go/ticket"
)

// protectedHandler is the canonical downstream application: it requires an
// authenticated user and writes the principal's name.
func protectedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			Challenge(r.Context())
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, id.Name())
	})
}

func newTestMiddleware(t *testing.T, opts ...Option) *Middleware {
	t.Helper()
	opts = append([]Option{WithClock(bearertest.NewClock(testNow()))}, opts...)
	m, err := New(newTestDecoder(t), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareScenarios(t *testing.T) {
	cases := []struct {
		name       string
		opts       []Option
		header     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "undecodable token is challenged",
			header:     "Bearer invalid-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "decodable token with no restrictions",
			header:     "Bearer token-1",
			wantStatus: http.StatusOK,
			wantBody:   "Fabrikam",
		},
		{
			name:       "required audience but ticket has none",
			opts:       []Option{WithAudience(testAudience)},
			header:     "Bearer token-1",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "required audience mismatched",
			opts:       []Option{WithAudience(testAudience)},
			header:     "Bearer token-2",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "required audience among several declared",
			opts:       []Option{WithAudience(testAudience)},
			header:     "Bearer token-3",
			wantStatus: http.StatusOK,
			wantBody:   "Fabrikam",
		},
		{
			name:       "expired a day ago",
			header:     "Bearer token-4",
			wantStatus: http.StatusUnauthorized,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMiddleware(t, tc.opts...)
			rec := serve(m.Wrap(protectedHandler()), tc.header)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantBody != "" && rec.Body.String() != tc.wantBody {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tc.wantBody)
			}
			if tc.wantStatus == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("401 response is missing the Bearer challenge")
			}
		})
	}
}

func TestMiddlewareChallengeHeaderDetail(t *testing.T) {
	t.Run("no token gets bare challenge", func(t *testing.T) {
		m := newTestMiddleware(t)
		rec := serve(m.Wrap(protectedHandler()), "")
		if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Fatalf("WWW-Authenticate = %q, want bare %q", got, "Bearer")
		}
	})
	t.Run("invalid token gets error code", func(t *testing.T) {
		m := newTestMiddleware(t)
		rec := serve(m.Wrap(protectedHandler()), "Bearer invalid-token")
		if got := rec.Header().Get("WWW-Authenticate"); got != `Bearer error="invalid_token"` {
			t.Fatalf("WWW-Authenticate = %q", got)
		}
	})
	t.Run("realm is advertised", func(t *testing.T) {
		m := newTestMiddleware(t, WithRealm("api"))
		rec := serve(m.Wrap(protectedHandler()), "")
		if got := rec.Header().Get("WWW-Authenticate"); got != `Bearer realm="api"` {
			t.Fatalf("WWW-Authenticate = %q", got)
		}
	})
}

func TestMiddlewareActiveModeDecoratesDownstream401(t *testing.T) {
	m := newTestMiddleware(t)
	// Downstream rejects on its own without signaling an explicit challenge.
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			http.Error(w, "denied", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := serve(h, "Bearer invalid-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("active mode must decorate a downstream 401")
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "denied" {
		t.Fatalf("application body was not preserved: %q", got)
	}
}

func TestMiddlewarePassiveModeNeedsExplicitChallenge(t *testing.T) {
	t.Run("plain 401 passes through untouched", func(t *testing.T) {
		m := newTestMiddleware(t, WithMode(ModePassive))
		h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		rec := serve(h, "Bearer invalid-token")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") != "" {
			t.Fatal("passive mode must not challenge without an explicit signal")
		}
	})
	t.Run("explicit challenge is honored", func(t *testing.T) {
		m := newTestMiddleware(t, WithMode(ModePassive))
		rec := serve(m.Wrap(protectedHandler()), "Bearer invalid-token")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatal("explicit challenge must produce a Bearer challenge")
		}
	})
	t.Run("validation still runs eagerly", func(t *testing.T) {
		m := newTestMiddleware(t, WithMode(ModePassive))
		rec := serve(m.Wrap(protectedHandler()), "Bearer token-1")
		if rec.Code != http.StatusOK || rec.Body.String() != "Fabrikam" {
			t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
		}
	})
}

func TestMiddlewareEmitsResponseWhenDownstreamWritesNothing(t *testing.T) {
	m := newTestMiddleware(t)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			Challenge(r.Context())
		}
	}))

	t.Run("empty body by default", func(t *testing.T) {
		rec := serve(h, "Bearer invalid-token")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Fatalf("expected empty body, got %q", rec.Body.String())
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatal("missing Bearer challenge")
		}
	})

	t.Run("json body when negotiated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("Content-Type = %q", ct)
		}
		if !strings.Contains(rec.Body.String(), `"code":401`) {
			t.Fatalf("unexpected body %q", rec.Body.String())
		}
	})

	t.Run("no challenge means no 401", func(t *testing.T) {
		quiet := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := serve(quiet, "Bearer invalid-token")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, failed validation alone must not reject", rec.Code)
		}
	})
}

func TestMiddlewareChallengeIsIdempotent(t *testing.T) {
	m := newTestMiddleware(t)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Challenge(r.Context())
		Challenge(r.Context())
		w.WriteHeader(http.StatusUnauthorized)
	}))
	rec := serve(h, "Bearer invalid-token")
	if got := rec.Header().Values("WWW-Authenticate"); len(got) != 1 {
		t.Fatalf("expected exactly one WWW-Authenticate header, got %v", got)
	}
}

func TestMiddlewareLayeredSchemesMergeIdentities(t *testing.T) {
	// An API-key scheme in front of the bearer middleware attaches its own
	// identity; the bearer middleware must add to it, not replace it.
	apiKeyScheme := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, st := ensureAuthState(r.Context())
			st.attach(ticket.Identity{}.Add(ticket.ClaimSubject, "svc-account"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	m := newTestMiddleware(t)
	var got []ticket.Identity
	h := apiKeyScheme(m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Identities(r.Context())
	})))

	rec := serve(h, "Bearer token-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(got) != 2 {
		t.Fatalf("expected composite principal with 2 identities, got %d", len(got))
	}
	if got[0].Name() != "svc-account" || got[1].Name() != "Fabrikam" {
		t.Fatalf("identities out of order or replaced: %v", got)
	}
}

func TestMiddlewareForeignIdentitySuppressesChallenge(t *testing.T) {
	// Another scheme authenticated the request; this middleware's failed
	// validation must not challenge it.
	apiKeyScheme := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, st := ensureAuthState(r.Context())
			st.attach(ticket.Identity{}.Add(ticket.ClaimSubject, "svc-account"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	m := newTestMiddleware(t)
	h := apiKeyScheme(m.Wrap(protectedHandler()))

	rec := serve(h, "Bearer invalid-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 via foreign identity", rec.Code)
	}
	if rec.Body.String() != "svc-account" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestAttachIdentityFromDownstream(t *testing.T) {
	m := newTestMiddleware(t)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AttachIdentity(r.Context(), ticket.Identity{}.Add(ticket.ClaimSubject, "late-scheme"))
		if len(Identities(r.Context())) != 2 {
			t.Error("downstream attachment did not merge")
		}
	}))
	serve(h, "Bearer token-1")
}

func TestContextHelpersOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := req.Context()
	if _, ok := IdentityFromContext(ctx); ok {
		t.Fatal("identity reported outside a wrapped request")
	}
	if ids := Identities(ctx); ids != nil {
		t.Fatalf("Identities = %v, want nil", ids)
	}
	// Both must be harmless no-ops without state.
	Challenge(ctx)
	AttachIdentity(ctx, ticket.Identity{}.Add(ticket.ClaimSubject, "x"))
}
