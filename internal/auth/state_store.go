package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charlesng35/fenceadmin/internal/cache"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/pkg/crypto"
)

// DefaultStorageKey is the key the persisted admin session lives under.
const DefaultStorageKey = "bams_session"

var errNoState = errors.New("auth: no persisted session")

// State is the persisted admin session record.
type State struct {
	SessionID string      `json:"sessionId"`
	User      models.User `json:"user"`
	CompanyID string      `json:"companyId,omitempty"`
}

// Valid reports whether the record carries a session and a user.
func (s State) Valid() bool {
	return strings.TrimSpace(s.SessionID) != "" && strings.TrimSpace(s.User.ID) != ""
}

// StateStore persists the single admin session record.
type StateStore interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
	Clear(ctx context.Context) error
}

type cacheStateStore struct {
	store cache.Store
	key   string
	seal  []byte
}

// NewCacheStateStore keeps the session record in the local cache store. When sealKey
// is set the record is encrypted with AES-GCM before it is written.
func NewCacheStateStore(store cache.Store, key string, sealKey []byte) StateStore {
	if store == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultStorageKey
	}
	return &cacheStateStore{store: store, key: key, seal: sealKey}
}

func (s *cacheStateStore) Load(ctx context.Context) (State, error) {
	data, found, err := s.store.Get(ctx, s.key)
	if err != nil {
		return State{}, err
	}
	if !found || len(data) == 0 {
		return State{}, errNoState
	}

	if len(s.seal) > 0 {
		data, err = crypto.Decrypt(string(data), s.seal)
		if err != nil {
			return State{}, fmt.Errorf("state store: open: %w", err)
		}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("state store: decode: %w", err)
	}
	return state, nil
}

func (s *cacheStateStore) Save(ctx context.Context, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("state store: marshal: %w", err)
	}

	if len(s.seal) > 0 {
		sealed, err := crypto.Encrypt(payload, s.seal)
		if err != nil {
			return fmt.Errorf("state store: seal: %w", err)
		}
		payload = []byte(sealed)
	}

	return s.store.Set(ctx, s.key, payload, 0)
}

func (s *cacheStateStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}
