package ports

import (
	"context"

	"github.com/layer-3/simorgh/core"
)

// IdentityStore resolves a canonical phone number to a user, creating the
// user on first successful login. The durable user record lives in a sibling
// service; this core only ever sees the opaque ID.
type IdentityStore interface {
	ResolveOrCreate(ctx context.Context, phone string) (core.UserID, error)
}
