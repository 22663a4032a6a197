// Package claimset maps a decoded JSON claim set into a ticket: ordered
// identity claims plus the validation-relevant properties (exp, aud).
package claimset

import (
	"sort"
	"strconv"
	"time"

	"github.com/tokenward/bearer-go/ticket"
)

// ToTicket converts raw claims into a Ticket. "exp" becomes the expiration
// property and "aud" (string or array) the audience set; everything else
// becomes identity claims. Emission order is deterministic: subject first,
// then name, then the remaining claim types alphabetically, with array
// values expanded in array order.
func ToTicket(claims map[string]any) *ticket.Ticket {
	t := &ticket.Ticket{}

	if expf, ok := claims["exp"].(float64); ok {
		exp := time.Unix(int64(expf), 0).UTC()
		t.Properties.ExpiresAt = &exp
	}
	t.Properties.Audiences = audiences(claims["aud"])

	keys := make([]string, 0, len(claims))
	for k := range claims {
		if k == "exp" || k == "aud" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	// Front-load the claims that identify the subject.
	for _, front := range []string{ticket.ClaimSubject, ticket.ClaimName} {
		if _, ok := claims[front]; ok {
			t.Identity = appendClaim(t.Identity, front, claims[front])
		}
	}
	for _, k := range keys {
		if k == ticket.ClaimSubject || k == ticket.ClaimName {
			continue
		}
		t.Identity = appendClaim(t.Identity, k, claims[k])
	}
	return t
}

func appendClaim(id ticket.Identity, typ string, v any) ticket.Identity {
	switch val := v.(type) {
	case string:
		return id.Add(typ, val)
	case bool:
		return id.Add(typ, strconv.FormatBool(val))
	case float64:
		if val == float64(int64(val)) {
			return id.Add(typ, strconv.FormatInt(int64(val), 10))
		}
		return id.Add(typ, strconv.FormatFloat(val, 'f', -1, 64))
	case []any:
		for _, e := range val {
			id = appendClaim(id, typ, e)
		}
		return id
	default:
		// Structured claim values have no flat representation; skip them.
		return id
	}
}

func audiences(aud any) []string {
	switch v := aud.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), v...)
	}
	return nil
}
