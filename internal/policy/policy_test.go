package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsMatchConstants(t *testing.T) {
	got, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoad_NearbyThresholdsStayIndependent(t *testing.T) {
	got, err := Load([]byte(`rest_nearby_miles: 12`))
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.RestNearbyMiles)
	assert.Equal(t, DefaultDetentionNearbyMiles, got.DetentionNearbyMiles)
}

func TestLoad_RejectsNonPositiveDistance(t *testing.T) {
	_, err := Load([]byte(`same_location_miles: -1`))
	assert.Error(t, err)
}

func TestLoad_RejectsInvertedDetentionBrackets(t *testing.T) {
	_, err := Load([]byte(`long_detention_seconds: 3600`))
	assert.Error(t, err)
}

func TestLoad_RejectsMalformedOverride(t *testing.T) {
	_, err := Load([]byte(`rest_nearby_miles: [`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.cue")
	require.NoError(t, os.WriteFile(path, []byte("detention_seconds: 5400\n"), 0o600))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5400), got.DetentionSeconds)

	def, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), def)
}
