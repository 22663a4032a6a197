package bearer

import "strings"

const bearerScheme = "Bearer"

// ExtractToken parses an Authorization header value of the form
// "<scheme> <credentials>" and returns the credentials when the scheme is
// Bearer (compared case-insensitively per RFC 7235). A missing header, a
// different scheme, or a malformed single-token value all report ok=false:
// an anonymous request, not an error.
func ExtractToken(authorization string) (token string, ok bool) {
	if authorization == "" {
		return "", false
	}
	scheme, creds, found := strings.Cut(authorization, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return "", false
	}
	return creds, true
}
