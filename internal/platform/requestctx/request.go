// Package requestctx carries per-request values across transport layers.
package requestctx

import "context"

type callerContextKey struct{}

type localeContextKey struct{}

// WithCaller stores the authenticated caller subject in context.
func WithCaller(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey{}, subject)
}

// CallerFromContext returns the caller subject stored in context, or "" for
// anonymous requests.
func CallerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(callerContextKey{}).(string)
	return value
}

// WithLocale stores the preferred response locale in context.
func WithLocale(ctx context.Context, locale string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// LocaleFromContext returns the preferred response locale, or "".
func LocaleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(localeContextKey{}).(string)
	return value
}
