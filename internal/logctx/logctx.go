// Package logctx enriches slog records with request-scoped attributes
// carried on the context: the inbound request envelope and the outcome of
// the authentication pass. Wrap an application handler with Handler to get
// the groups on every log line emitted during a request.
package logctx

import (
	"context"
	"log/slog"
)

type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("path", rd.Path),
			slog.String("user_agent", rd.UserAgent),
			slog.String("remote_addr", rd.RemoteAddr),
		))
	}

	if ad, ok := ctx.Value(authDataKey{}).(*AuthData); ok {
		attrs := []slog.Attr{slog.String("scheme", ad.Scheme)}
		if ad.Subject != "" {
			attrs = append(attrs, slog.String("sub", ad.Subject))
		}
		if ad.Reason != "" {
			attrs = append(attrs, slog.String("reason", ad.Reason))
		}
		r.AddAttrs(slog.Attr{Key: "auth", Value: slog.GroupValue(attrs...)})
	}

	return h.Handler.Handle(ctx, r)
}

type requestDataKey struct{}

type RequestData struct {
	RequestID  string
	Method     string
	Path       string
	UserAgent  string
	RemoteAddr string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type authDataKey struct{}

// AuthData records the authentication outcome of the request: the scheme
// that ran, and either the subject it authenticated or the reason it did
// not.
type AuthData struct {
	Scheme  string
	Subject string
	Reason  string
}

func WithAuthData(ctx context.Context, data *AuthData) context.Context {
	return context.WithValue(ctx, authDataKey{}, data)
}
