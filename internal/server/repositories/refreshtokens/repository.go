package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/atolye/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	Find(ctx context.Context, id string) (*models.RefreshToken, error)
	// Delete removes the token and returns common.ErrorNotFound when it was
	// already gone, so only one of two concurrent rotations succeeds.
	Delete(ctx context.Context, id string) error
}
