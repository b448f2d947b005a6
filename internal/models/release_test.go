package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCatalog_SortsAscending(t *testing.T) {
	releases := []*Release{
		{Version: MustParseVersion("v1.2.0")},
		{Version: MustParseVersion("v1.0.0")},
		{Version: MustParseVersion("v1.0.1")},
	}

	out := NormalizeCatalog(releases)

	require.Len(t, out, 3)
	assert.Equal(t, "v1.0.0", out[0].Version.String())
	assert.Equal(t, "v1.0.1", out[1].Version.String())
	assert.Equal(t, "v1.2.0", out[2].Version.String())
}

func TestNormalizeCatalog_DeduplicatesAcrossPrefixSpelling(t *testing.T) {
	releases := []*Release{
		{Version: MustParseVersion("v1.0.0"), DownloadURL: "first"},
		{Version: MustParseVersion("1.0.0"), DownloadURL: "second"},
	}

	out := NormalizeCatalog(releases)

	require.Len(t, out, 1)
	// Latest-fetched entry wins on a tag collision.
	assert.Equal(t, "second", out[0].DownloadURL)
}

func TestNormalizeCatalog_Empty(t *testing.T) {
	assert.Empty(t, NormalizeCatalog(nil))
	assert.Empty(t, NormalizeCatalog([]*Release{}))
}

func TestSplitChangelog(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{
			name:     "empty body",
			body:     "",
			expected: nil,
		},
		{
			name:     "plain lines",
			body:     "fixed a bug\nadded a feature",
			expected: []string{"fixed a bug", "added a feature"},
		},
		{
			name:     "list markers stripped",
			body:     "- fixed a bug\n* added a feature",
			expected: []string{"fixed a bug", "added a feature"},
		},
		{
			name:     "blank lines and whitespace dropped",
			body:     "  first  \n\n\n  second\n",
			expected: []string{"first", "second"},
		},
		{
			name:     "windows line endings",
			body:     "- one\r\n- two",
			expected: []string{"one", "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitChangelog(tt.body))
		})
	}
}
