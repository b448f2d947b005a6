// Package models - release metadata as normalized from the hosting provider.
//
// A Release is created once when a provider entry is normalized and never
// mutated afterwards; catalog snapshots hold them until the cache entry
// expires. The checksum is an opaque provider-supplied hex string and may
// be empty, which downstream consumers treat as "unknown", never as an
// error.
package models

import "strings"

// Release is one published release of the tracked application.
type Release struct {
	Version     *Version `json:"version"`      // Parsed tag
	Changes     []string `json:"changes"`      // Free-text changelog lines from the release body
	DownloadURL string   `json:"download_url"` // Update archive asset URL, empty when the asset is absent
	Checksum    string   `json:"checksum"`     // Hex checksum of the asset, empty when unknown
	SourceURL   string   `json:"source_url"`   // Human-facing release page
}

// ChangelogEntry pairs a version with its changelog lines for the
// aggregated changelog returned by the check_updates endpoint.
type ChangelogEntry struct {
	Version string   `json:"version"`
	Changes []string `json:"changes"`
}

// NormalizeCatalog sorts releases ascending by version and deduplicates by
// version. The provider is not expected to emit duplicate tags, but if it
// does, the latest-fetched entry wins.
func NormalizeCatalog(releases []*Release) []*Release {
	byVersion := make(map[string]*Release, len(releases))
	for _, r := range releases {
		// Key on the canonical triple so "v1.0.0" and "1.0.0" collide.
		byVersion[canonicalKey(r.Version)] = r
	}

	out := make([]*Release, 0, len(byVersion))
	for _, r := range byVersion {
		out = append(out, r)
	}
	sortReleases(out)
	return out
}

// sortReleases orders releases ascending by version. Catalogs are small
// (tens of entries), so insertion sort keeps this allocation-free.
func sortReleases(releases []*Release) {
	for i := 1; i < len(releases); i++ {
		for j := i; j > 0 && releases[j].Version.LessThan(releases[j-1].Version); j-- {
			releases[j], releases[j-1] = releases[j-1], releases[j]
		}
	}
}

func canonicalKey(v *Version) string {
	s := v.String()
	if s != "" && (s[0] < '0' || s[0] > '9') {
		return s[1:]
	}
	return s
}

// SplitChangelog turns a release body into individual changelog lines.
// Blank lines are dropped and common list markers are stripped.
func SplitChangelog(body string) []string {
	if body == "" {
		return nil
	}

	var changes []string
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if line == "" {
			continue
		}
		changes = append(changes, line)
	}
	return changes
}
