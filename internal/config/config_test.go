package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "concave", cfg.Build.Strategy)
	assert.Equal(t, 500.0, cfg.Build.BufferRadiusM)
	assert.Equal(t, 800.0, cfg.Build.AlphaMinM)
	assert.Equal(t, 5000.0, cfg.Build.AlphaMaxM)
	assert.Equal(t, 6, cfg.Build.PaletteSize)
	assert.False(t, cfg.Build.Strict)
	assert.Equal(t, "windows-1250", cfg.Ingest.Encoding)
	assert.Equal(t, ";", cfg.Ingest.Delimiter)
	assert.Equal(t, 6, cfg.Tiles.MinZoom)
	assert.Equal(t, 14, cfg.Tiles.MaxZoom)
	assert.GreaterOrEqual(t, cfg.Build.Workers, 1)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PSC_BUILD_STRATEGY", "voronoi")
	t.Setenv("PSC_BUILD_PALETTE_SIZE", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "voronoi", cfg.Build.Strategy)
	assert.Equal(t, 4, cfg.Build.PaletteSize)
}

func TestValidateRejectsBadStrategy(t *testing.T) {
	cfg := &Config{
		Build: BuildConfig{
			Strategy:      "delaunay",
			BufferRadiusM: 500,
			AlphaMinM:     800,
			AlphaMaxM:     5000,
			PaletteSize:   6,
			Workers:       4,
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy")
}

func TestValidateRejectsBadAlphaRange(t *testing.T) {
	cfg := &Config{
		Build: BuildConfig{
			Strategy:      "concave",
			BufferRadiusM: 500,
			AlphaMinM:     5000,
			AlphaMaxM:     800,
			PaletteSize:   6,
			Workers:       4,
		},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateClampsWorkers(t *testing.T) {
	cfg := &Config{
		Build: BuildConfig{
			Strategy:      "concave",
			BufferRadiusM: 500,
			AlphaMinM:     800,
			AlphaMaxM:     5000,
			PaletteSize:   6,
			Workers:       0,
		},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Build.Workers)
}
