package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
)

// IdentityProvider resolves the user on whose behalf an operation runs.
type IdentityProvider interface {
	// CurrentUser returns the authenticated user's ID, or
	// domain.ErrNotAuthenticated when there is none.
	CurrentUser(ctx context.Context) (uuid.UUID, error)
}

type userIDKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the user ID stored by WithUserID.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

// ContextIdentity reads the identity placed in the context by the
// authentication middleware.
type ContextIdentity struct{}

// Ensure ContextIdentity implements IdentityProvider
var _ IdentityProvider = ContextIdentity{}

// CurrentUser implements IdentityProvider.
func (ContextIdentity) CurrentUser(ctx context.Context) (uuid.UUID, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, domain.ErrNotAuthenticated
	}
	return userID, nil
}

// StaticIdentity always reports the same user. It serves single-user
// deployments and tests; uuid.Nil reports no identity.
type StaticIdentity uuid.UUID

// CurrentUser implements IdentityProvider.
func (s StaticIdentity) CurrentUser(context.Context) (uuid.UUID, error) {
	if uuid.UUID(s) == uuid.Nil {
		return uuid.Nil, domain.ErrNotAuthenticated
	}
	return uuid.UUID(s), nil
}
