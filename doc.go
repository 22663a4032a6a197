// Package bearer authenticates HTTP requests that carry a bearer token in
// the Authorization header. It extracts the token, decodes it into a
// [ticket.Ticket] via a pluggable [Decoder], validates expiration and
// audience restrictions, and attaches the resulting identity to
// request-scoped authentication state.
//
// The public surface intentionally stays small: a [Validator] turns a raw
// Authorization header value into a [Result], and a [Middleware] wires that
// decision into the request lifecycle, emitting an RFC 6750 Bearer challenge
// (401 + WWW-Authenticate) when the application signals that an
// authenticated user was required and none was present.
//
// # Validation
//
// Validation is a strict short-circuiting sequence, re-run once per request
// with no memoized state: missing credential, undecodable token, expired
// ticket, then (only when configured) audience mismatch. Every failure is an
// expected, request-local outcome surfaced as data on the [Result]; nothing
// in this package panics or returns an error during request handling. The
// only fatal condition is a construction-time misconfiguration such as a nil
// decoder.
//
// Example:
//
//	dec, err := jwtdecoder.NewFromDiscovery(ctx, "https://issuer.example")
//	if err != nil { log.Fatal(err) }
//
//	mw, err := bearer.New(dec, bearer.WithAudience("https://api.example"))
//	if err != nil { log.Fatal(err) }
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
//	    id, ok := bearer.IdentityFromContext(r.Context())
//	    if !ok {
//	        w.WriteHeader(http.StatusUnauthorized)
//	        return
//	    }
//	    io.WriteString(w, id.Name())
//	})
//	http.ListenAndServe(":8080", mw.Wrap(mux))
//
// # Modes
//
// In the default Active mode a downstream 401 response from an
// unauthenticated request is automatically decorated with a Bearer
// challenge. In Passive mode the middleware still validates eagerly but only
// challenges when downstream explicitly asked for one via [Challenge].
//
// # Layering
//
// Multiple authentication schemes may run on one request. Identity
// attachment is additive: this middleware merges its identity into any
// authentication state already present on the request instead of replacing
// it, and another scheme's identity suppresses this middleware's challenge.
package bearer
