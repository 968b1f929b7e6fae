package secure

import (
	"context"
	"sync"
)

type tokenContextKey struct{}

// ContextWithToken stores the caller's bearer token for the Resolver.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext extracts the bearer token, if any.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

// RequestMeta carries network/client metadata for audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaContextKey struct{}

// ContextWithRequestMeta stores request metadata in the context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaContextKey{}, &meta)
}

// RequestMetaFromContext extracts request metadata, if present.
func RequestMetaFromContext(ctx context.Context) *RequestMeta {
	meta, _ := ctx.Value(requestMetaContextKey{}).(*RequestMeta)
	return meta
}

// sessionCell memoizes one session resolution for a single request's call
// chain. It is installed per request by the middleware; the Resolver fills
// it at most once. Scoping the cell to the context keeps concurrent
// requests fully independent.
type sessionCell struct {
	once sync.Once
	sess *VerifiedSession
	err  error
}

type sessionCellContextKey struct{}

// ContextWithSessionCache installs a fresh memoization cell for one
// logical request.
func ContextWithSessionCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionCellContextKey{}, &sessionCell{})
}

func sessionCacheFromContext(ctx context.Context) *sessionCell {
	cell, _ := ctx.Value(sessionCellContextKey{}).(*sessionCell)
	return cell
}
