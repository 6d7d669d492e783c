package shared

import (
	"context"

	"github.com/citylink/citylink/internal/policy"
)

type identityContextKey struct{}

// ContextWithIdentity stores the authenticated caller in the context.
func ContextWithIdentity(ctx context.Context, id policy.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity. The second return is
// false on unauthenticated requests.
func IdentityFromContext(ctx context.Context) (policy.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(policy.Identity)
	return id, ok
}
