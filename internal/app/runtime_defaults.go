package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charlesng35/fenceadmin/internal/auth"
)

const stateSecretBytes = 32

// ApplyRuntimeDefaults fills settings that must never be empty, even when no
// configuration file is supplied, and rejects a malformed state encryption key. It
// returns the keys it filled in so callers can log the event.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	applied := make(map[string]bool)

	if strings.TrimSpace(cfg.State.StorageKey) == "" {
		cfg.State.StorageKey = auth.DefaultStorageKey
		applied["state.storage_key"] = true
	}
	if cfg.Views.PageSize <= 0 {
		cfg.Views.PageSize = defaultPageSize
		applied["views.page_size"] = true
	}
	if cfg.Views.RefreshInterval <= 0 {
		cfg.Views.RefreshInterval = defaultRefreshInterval
		applied["views.refresh_interval"] = true
	}
	if cfg.Upstream.Timeout <= 0 {
		cfg.Upstream.Timeout = defaultUpstreamTimeout
		applied["upstream.timeout"] = true
	}

	if key := strings.TrimSpace(cfg.State.EncryptionKey); key != "" {
		length, err := KeyByteLength(key)
		if err != nil {
			return nil, fmt.Errorf("state.encryption_key: %w", err)
		}
		switch length {
		case 16, 24, 32:
		default:
			return nil, fmt.Errorf("state.encryption_key must decode to 16, 24 or 32 bytes, got %d", length)
		}
	}

	return applied, nil
}

func generateHexKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
