// Package update resolves "what should this client update to" against the
// release catalog.
//
// Resolution always jumps straight to the latest release above the client's
// current version; incremental upgrades are never queued. A client at or
// ahead of the latest release gets a no-update result, not an error.
package update

import (
	"context"
	"errors"

	"updaterelay/internal/catalog"
	"updaterelay/internal/models"
)

// Service answers update checks for one tracked repository.
type Service struct {
	catalog catalog.Provider
	owner   string
	repo    string
}

// NewService creates an update service over the given catalog provider.
func NewService(provider catalog.Provider, owner, repo string) *Service {
	return &Service{
		catalog: provider,
		owner:   owner,
		repo:    repo,
	}
}

// Resolution is the shared result both endpoint views are built from.
type Resolution struct {
	Current   *models.Version
	Target    *models.Release // nil when the client is already at or ahead of the latest
	Changelog []models.ChangelogEntry
}

// resolve parses the client's version, loads the catalog and computes the
// target release and aggregated changelog.
func (s *Service) resolve(ctx context.Context, currentVersion string) (*Resolution, error) {
	if currentVersion == "" {
		return nil, NewMissingParameterError("version")
	}

	current, err := models.ParseVersion(currentVersion)
	if err != nil {
		return nil, NewInvalidVersionError(currentVersion, err)
	}

	releases, err := s.releases(ctx)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Current: current}

	// The catalog is sorted ascending, so newer releases accumulate in
	// order and the last match is the maximum.
	for _, release := range releases {
		if !release.Version.GreaterThan(current) {
			continue
		}
		res.Target = release
		res.Changelog = append(res.Changelog, models.ChangelogEntry{
			Version: release.Version.String(),
			Changes: release.Changes,
		})
	}

	return res, nil
}

// CheckAsset implements the /update contract: the download URL and checksum
// of the latest release above the given version. Both fields are empty when
// no update is available.
func (s *Service) CheckAsset(ctx context.Context, currentVersion string) (*models.UpdateAssetResponse, error) {
	res, err := s.resolve(ctx, currentVersion)
	if err != nil {
		return nil, err
	}

	resp := &models.UpdateAssetResponse{}
	if res.Target != nil {
		resp.URL = res.Target.DownloadURL
		resp.MD5 = res.Target.Checksum
	}
	return resp, nil
}

// CheckUpdates implements the /check_updates contract: the full changelog
// from the client's version to the latest, ascending, plus the target
// version and download URL. With no update available the changelog is empty
// and the client's own version is echoed back.
func (s *Service) CheckUpdates(ctx context.Context, currentVersion string) (*models.CheckUpdatesResponse, error) {
	res, err := s.resolve(ctx, currentVersion)
	if err != nil {
		return nil, err
	}

	resp := &models.CheckUpdatesResponse{
		Changelog: []models.ChangelogEntry{},
		Version:   res.Current.String(),
	}
	if res.Target != nil {
		resp.Changelog = res.Changelog
		resp.URL = res.Target.DownloadURL
		resp.Version = res.Target.Version.String()
	}
	return resp, nil
}

// Latest returns the newest release known to the catalog. An empty catalog
// yields empty fields rather than an error; the repository simply has no
// published releases yet.
func (s *Service) Latest(ctx context.Context) (*models.LatestVersionResponse, error) {
	releases, err := s.releases(ctx)
	if err != nil {
		return nil, err
	}

	resp := &models.LatestVersionResponse{}
	if len(releases) > 0 {
		latest := releases[len(releases)-1]
		resp.Version = latest.Version.String()
		resp.URL = latest.DownloadURL
		resp.MD5 = latest.Checksum
	}
	return resp, nil
}

// releases loads the catalog, translating provider failures into the
// service error taxonomy.
func (s *Service) releases(ctx context.Context) ([]*models.Release, error) {
	releases, err := s.catalog.Releases(ctx, s.owner, s.repo)
	if err != nil {
		var upstream *catalog.UpstreamError
		if errors.As(err, &upstream) {
			return nil, NewUpstreamError("failed to fetch releases", upstream.ErrorType(), err)
		}
		return nil, NewUpstreamError("failed to fetch releases", "", err)
	}
	return releases, nil
}
