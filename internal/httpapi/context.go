package httpapi

import (
	"context"

	"cdnflow/pkg/passhash"
)

type claimsKey struct{}

func withClaims(ctx context.Context, claims *passhash.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func claimsFromContext(ctx context.Context) (*passhash.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*passhash.Claims)
	return claims, ok
}
