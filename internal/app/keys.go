package app

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/fenceadmin/internal/auth"
	"github.com/charlesng35/fenceadmin/internal/database"
	"github.com/charlesng35/fenceadmin/pkg/crypto"
)

// DecodeKey decodes a key from hex or base64 encoding to raw bytes.
// It tries hex first, since generated state keys are hex, then base64 variants.
// If all decoding attempts fail, it treats the input as raw bytes.
func DecodeKey(value string) ([]byte, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, fmt.Errorf("key value is empty")
	}

	if len(v)%2 == 0 {
		if decoded, err := hex.DecodeString(v); err == nil {
			return decoded, nil
		}
	}

	if decoded, err := base64.StdEncoding.DecodeString(v); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(v); err == nil {
		return decoded, nil
	}

	// Fallback to treating as raw bytes
	return []byte(v), nil
}

// KeyByteLength returns the decoded byte length of a key string.
// It supports hex, base64, and raw string encodings.
func KeyByteLength(value string) (int, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, nil
	}

	if len(v)%2 == 0 {
		if decoded, err := hex.DecodeString(v); err == nil {
			return len(decoded), nil
		}
	}

	if decoded, err := base64.StdEncoding.DecodeString(v); err == nil {
		return len(decoded), nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(v); err == nil {
		return len(decoded), nil
	}

	return len(v), nil
}

// StateKeySource names where the session sealing key came from.
type StateKeySource string

const (
	StateKeyFromConfig     StateKeySource = "config"
	StateKeyFromPassphrase StateKeySource = "passphrase"
	StateKeyFromDatabase   StateKeySource = "database"
	StateKeyDisabled       StateKeySource = "disabled"
)

// ResolveStateKey picks the key that seals the persisted admin session: an explicit
// key, then one derived from the passphrase, then a random key generated once and kept
// in system settings. With sealing turned off it returns nil.
func ResolveStateKey(ctx context.Context, cfg StateConfig, db *gorm.DB) ([]byte, StateKeySource, error) {
	if key := strings.TrimSpace(cfg.EncryptionKey); key != "" {
		decoded, err := DecodeKey(key)
		if err != nil {
			return nil, "", err
		}
		return decoded, StateKeyFromConfig, nil
	}

	if passphrase := cfg.Passphrase; strings.TrimSpace(passphrase) != "" {
		label := cfg.StorageKey
		if strings.TrimSpace(label) == "" {
			label = auth.DefaultStorageKey
		}
		derived, err := crypto.DerivePassphraseKey(passphrase, label)
		if err != nil {
			return nil, "", fmt.Errorf("derive state key: %w", err)
		}
		return derived, StateKeyFromPassphrase, nil
	}

	if !cfg.Seal || db == nil {
		return nil, StateKeyDisabled, nil
	}

	stored, err := database.EnsureSystemSetting(ctx, db, database.StateKeySetting, func() (string, error) {
		return generateHexKey(stateSecretBytes)
	})
	if err != nil {
		return nil, "", err
	}
	decoded, err := DecodeKey(stored)
	if err != nil {
		return nil, "", err
	}
	return decoded, StateKeyFromDatabase, nil
}
