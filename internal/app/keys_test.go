package app

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/database"
	"github.com/charlesng35/fenceadmin/internal/database/testutil"
)

func TestDecodeKey(t *testing.T) {
	hexKey := strings.Repeat("0123456789abcdef", 4)
	hexBytes, _ := hex.DecodeString(hexKey)

	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}

	cases := []struct {
		name  string
		input string
		want  []byte
	}{
		{name: "hex", input: hexKey, want: hexBytes},
		{name: "base64", input: base64.StdEncoding.EncodeToString(raw), want: raw},
		{name: "raw base64", input: base64.RawStdEncoding.EncodeToString(raw), want: raw},
		{name: "raw bytes", input: "this-is-a-raw-32-byte-key!!!", want: []byte("this-is-a-raw-32-byte-key!!!")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeKey(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, decoded)
		})
	}

	_, err := DecodeKey("  ")
	require.Error(t, err)
}

func TestKeyByteLength(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{input: strings.Repeat("0123456789abcdef", 4), want: 32},
		{input: base64.StdEncoding.EncodeToString(make([]byte, 32)), want: 32},
		{input: "this-is-a-raw-key", want: 17},
		{input: "", want: 0},
		{input: "   ", want: 0},
	}
	for _, tc := range cases {
		length, err := KeyByteLength(tc.input)
		require.NoError(t, err)
		require.Equal(t, tc.want, length, tc.input)
	}
}

func TestResolveStateKeyPrefersExplicitKey(t *testing.T) {
	key, source, err := ResolveStateKey(context.Background(), StateConfig{
		EncryptionKey: strings.Repeat("ab", 32),
		Passphrase:    "ignored",
		Seal:          true,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, StateKeyFromConfig, source)
	require.Len(t, key, 32)
}

func TestResolveStateKeyDerivesFromPassphrase(t *testing.T) {
	first, source, err := ResolveStateKey(context.Background(), StateConfig{Passphrase: "correct horse"}, nil)
	require.NoError(t, err)
	require.Equal(t, StateKeyFromPassphrase, source)
	require.Len(t, first, 32)

	second, _, err := ResolveStateKey(context.Background(), StateConfig{Passphrase: "correct horse"}, nil)
	require.NoError(t, err)
	require.Equal(t, first, second)

	other, _, err := ResolveStateKey(context.Background(), StateConfig{Passphrase: "correct horse", StorageKey: "other"}, nil)
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestResolveStateKeyGeneratesOnceInDatabase(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	first, source, err := ResolveStateKey(ctx, StateConfig{Seal: true}, db)
	require.NoError(t, err)
	require.Equal(t, StateKeyFromDatabase, source)
	require.Len(t, first, 32)

	second, _, err := ResolveStateKey(ctx, StateConfig{Seal: true}, db)
	require.NoError(t, err)
	require.Equal(t, first, second)

	stored, err := database.GetSystemSetting(ctx, db, database.StateKeySetting)
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(first), stored)
}

func TestResolveStateKeyDisabled(t *testing.T) {
	key, source, err := ResolveStateKey(context.Background(), StateConfig{Seal: false}, nil)
	require.NoError(t, err)
	require.Nil(t, key)
	require.Equal(t, StateKeyDisabled, source)
}
