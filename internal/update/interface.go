package update

import (
	"context"

	"updaterelay/internal/models"
)

// ServiceInterface is what the HTTP layer depends on; *Service is the
// production implementation.
type ServiceInterface interface {
	CheckAsset(ctx context.Context, currentVersion string) (*models.UpdateAssetResponse, error)
	CheckUpdates(ctx context.Context, currentVersion string) (*models.CheckUpdatesResponse, error)
	Latest(ctx context.Context) (*models.LatestVersionResponse, error)
}
