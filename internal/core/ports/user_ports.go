package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/livepoll/livepoll/internal/core/domain"
)

type UserRepository interface {
	// Create registers a user mirrored from the identity provider,
	// generating an id when none is set.
	Create(ctx context.Context, user *domain.User) error
	// ListEmails returns every registered user's email, for notification
	// fan-out on poll creation.
	ListEmails(ctx context.Context) ([]string, error)
	// EmailsByIDs resolves user ids to emails, keyed by id string.
	EmailsByIDs(ctx context.Context, ids []uuid.UUID) (map[string]string, error)
}
