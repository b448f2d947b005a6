// Package catalog fetches and caches the release list of the tracked
// repository from the hosting provider's releases API.
//
// Normalization rules:
// - Draft releases and releases whose tag does not parse as a version are
//   skipped, never fatal
// - The download URL comes from the first asset matching the configured
//   archive name (update.tar.gz by default)
// - The checksum comes from the sibling checksum asset (<asset>.md5); a
//   missing or malformed checksum yields an empty string, not an error
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"updaterelay/internal/models"
)

// md5Pattern validates the content of a checksum asset: a single
// 32-character hex digest, surrounding whitespace tolerated.
var md5Pattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// maxChecksumBytes caps how much of a checksum asset is read. Digest files
// are one line; anything larger is not a digest.
const maxChecksumBytes = 1024

// githubRelease mirrors the provider's release entry. Only the fields the
// relay depends on are decoded.
type githubRelease struct {
	TagName    string        `json:"tag_name"`
	Body       string        `json:"body"`
	HTMLURL    string        `json:"html_url"`
	Draft      bool          `json:"draft"`
	Prerelease bool          `json:"prerelease"`
	Assets     []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Client fetches release metadata from the hosting provider.
type Client struct {
	baseURL        string
	token          string
	assetName      string
	checksumSuffix string
	httpClient     *http.Client
}

// NewClient creates a provider client from the upstream configuration. The
// configured timeout bounds every outbound call.
func NewClient(cfg models.UpstreamConfig) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.APIBaseURL, "/"),
		token:          cfg.Token,
		assetName:      cfg.AssetName,
		checksumSuffix: cfg.ChecksumSuffix,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
	}
}

// ListReleases fetches and normalizes the release list for owner/repo.
// Network and provider errors come back as *UpstreamError.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]*models.Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases", c.baseURL, owner, repo)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, &UpstreamError{Op: "list releases", Err: err}
	}

	var entries []githubRelease
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &UpstreamError{Op: "decode releases", Err: err}
	}

	releases := make([]*models.Release, 0, len(entries))
	for _, entry := range entries {
		if entry.Draft {
			continue
		}
		version, err := models.ParseVersion(entry.TagName)
		if err != nil {
			slog.Warn("Skipping release with unparseable tag",
				"owner", owner, "repo", repo, "tag", entry.TagName)
			continue
		}

		release := &models.Release{
			Version:   version,
			Changes:   models.SplitChangelog(entry.Body),
			SourceURL: entry.HTMLURL,
		}

		for _, asset := range entry.Assets {
			if asset.Name == c.assetName {
				release.DownloadURL = asset.BrowserDownloadURL
				break
			}
		}

		release.Checksum = c.fetchChecksum(ctx, entry.Assets)
		releases = append(releases, release)
	}

	return models.NormalizeCatalog(releases), nil
}

// fetchChecksum downloads and validates the sibling checksum asset. Any
// failure yields an empty string: an unknown checksum is not a broken
// release.
func (c *Client) fetchChecksum(ctx context.Context, assets []githubAsset) string {
	wanted := c.assetName + c.checksumSuffix

	for _, asset := range assets {
		if asset.Name != wanted {
			continue
		}
		body, err := c.get(ctx, asset.BrowserDownloadURL)
		if err != nil {
			slog.Warn("Failed to fetch checksum asset", "asset", wanted, "error", err)
			return ""
		}
		digest := strings.TrimSpace(string(body))
		if !md5Pattern.MatchString(digest) {
			slog.Warn("Checksum asset content is not a valid digest", "asset", wanted)
			return ""
		}
		return digest
	}

	return ""
}

// get performs an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused, then report the status.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, errors.New(http.StatusText(resp.StatusCode) + " from " + url)
	}

	limit := io.Reader(resp.Body)
	if strings.HasSuffix(url, c.checksumSuffix) {
		limit = io.LimitReader(resp.Body, maxChecksumBytes)
	}
	return io.ReadAll(limit)
}
