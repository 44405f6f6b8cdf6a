package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsFillsMissingSettings(t *testing.T) {
	cfg := &Config{}

	applied, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)

	require.Equal(t, "bams_session", cfg.State.StorageKey)
	require.Equal(t, 50, cfg.Views.PageSize)
	require.Equal(t, 30*time.Second, cfg.Views.RefreshInterval)
	require.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	require.True(t, applied["state.storage_key"])
	require.True(t, applied["views.page_size"])
}

func TestApplyRuntimeDefaultsPreservesExistingSettings(t *testing.T) {
	cfg := &Config{}
	cfg.State.StorageKey = "console_session"
	cfg.State.EncryptionKey = strings.Repeat("ab", 32)
	cfg.Views.PageSize = 25
	cfg.Views.RefreshInterval = time.Minute
	cfg.Upstream.Timeout = 5 * time.Second

	applied, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, applied)
	require.Equal(t, "console_session", cfg.State.StorageKey)
}

func TestApplyRuntimeDefaultsRejectsShortStateKey(t *testing.T) {
	cfg := &Config{}
	cfg.State.EncryptionKey = "too-short"

	_, err := ApplyRuntimeDefaults(cfg)
	require.ErrorContains(t, err, "16, 24 or 32 bytes")
}

func TestApplyRuntimeDefaultsNilConfig(t *testing.T) {
	_, err := ApplyRuntimeDefaults(nil)
	require.ErrorContains(t, err, "config is nil")
}

func TestGenerateHexKey(t *testing.T) {
	key, err := generateHexKey(4)
	require.NoError(t, err)
	require.Len(t, key, 8)

	_, err = generateHexKey(0)
	require.Error(t, err)
}
