package bearer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elnormous/contenttype"
)

const wwwAuthenticateHeader = "WWW-Authenticate"

var (
	jsonMediaType  = contenttype.NewMediaType("application/json")
	jsonMediaTypes = []contenttype.MediaType{jsonMediaType}
)

// buildBearerChallenge builds a standardized Bearer challenge header value.
// Format:
//
//	Bearer realm="<realm>", error="invalid_token"
//
// Realm is omitted if empty. Per RFC 6750 §3.1, a request that carried no
// authentication information at all gets a bare challenge with no error
// code; any attempted-but-failed validation surfaces the coarse
// "invalid_token" code and nothing more. Internal failure detail never
// leaks onto the wire.
func buildBearerChallenge(realm string, reason Reason) string {
	esc := func(v string) string { return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) }
	pieces := make([]string, 0, 2)
	if realm != "" {
		pieces = append(pieces, fmt.Sprintf(`realm="%s"`, esc(realm)))
	}
	switch reason {
	case ReasonDecodeFailure, ReasonExpired, ReasonAudienceMismatch:
		pieces = append(pieces, `error="invalid_token"`)
	}
	if len(pieces) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(pieces, ", ")
}

// challengeWriter wraps the downstream ResponseWriter to bridge the deferred
// challenge flag into the response. It injects the WWW-Authenticate header
// when an unauthenticated request is being rejected, and emits the full 401
// itself when downstream challenged but never wrote a response.
type challengeWriter struct {
	http.ResponseWriter
	st          *authState
	mode        Mode
	realm       string
	wroteHeader bool
}

func (w *challengeWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if status == http.StatusUnauthorized && w.shouldChallenge() {
			w.setChallengeHeader()
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *challengeWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer when it supports streaming.
func (w *challengeWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap supports http.ResponseController.
func (w *challengeWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// shouldChallenge decides whether a 401 being written now belongs to this
// scheme. An identity from any scheme suppresses the challenge. Active mode
// claims every unauthenticated 401; Passive only those explicitly requested.
func (w *challengeWriter) shouldChallenge() bool {
	if w.st.authenticated() {
		return false
	}
	if w.st.challengeRequested() {
		return true
	}
	return w.mode == ModeActive
}

// setChallengeHeader adds the Bearer challenge exactly once, even if the
// response path reaches it twice.
func (w *challengeWriter) setChallengeHeader() {
	h := w.Header()
	if h.Get(wwwAuthenticateHeader) != "" {
		return
	}
	h.Set(wwwAuthenticateHeader, buildBearerChallenge(w.realm, w.st.failureReason()))
}

// finish runs after the downstream handler returns. When downstream signaled
// a challenge but wrote nothing, the middleware owns the response: 401 with
// the Bearer challenge and, when the client negotiated for JSON, a minimal
// error body. A body the application already wrote is never touched.
func (w *challengeWriter) finish(r *http.Request) {
	if w.wroteHeader {
		return
	}
	if w.st.authenticated() || !w.st.challengeRequested() {
		return
	}
	w.setChallengeHeader()
	w.wroteHeader = true
	if r.Header.Get("Accept") != "" {
		if _, _, err := contenttype.GetAcceptableMediaType(r, jsonMediaTypes); err == nil {
			w.Header().Set("Content-Type", jsonMediaType.String())
			w.ResponseWriter.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w.ResponseWriter).Encode(map[string]any{
				"error": map[string]any{"code": http.StatusUnauthorized, "message": "unauthorized"},
			})
			return
		}
	}
	w.ResponseWriter.WriteHeader(http.StatusUnauthorized)
}
