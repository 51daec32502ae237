package ports

import (
	"context"

	"github.com/layer-3/simorgh/core"
)

// EventPublisher notifies sibling services about session lifecycle changes.
type EventPublisher interface {
	PublishLogin(ctx context.Context, userID core.UserID, phone string) error
	PublishLogout(ctx context.Context, userID core.UserID, tokenID string) error
}
