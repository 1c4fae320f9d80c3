package handlers

import (
	"context"

	"github.com/linkbatch/linkbatch/internal/shortener"
)

type requestMetaKey struct{}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta shortener.RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) shortener.RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(shortener.RequestMeta); ok {
		return v
	}

	return shortener.RequestMeta{}
}
