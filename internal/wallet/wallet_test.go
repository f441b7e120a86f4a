package wallet

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_GeneratesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")

	created, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, created.Address())
	assert.Equal(t, path, created.Path())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "keypair file must not be world-readable")

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, created.Address(), reloaded.Address(), "reload restores the same keypair")
}

func TestLoad_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "nested", "wallet.json")

	w, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, w.Address())

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoad_IntArrayFormat(t *testing.T) {
	account := types.NewAccount()

	ints := make([]int, len(account.PrivateKey))
	for i, b := range account.PrivateKey {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	w, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, account.PublicKey.ToBase58(), w.Address())
}

func TestLoad_Base64StringFormat(t *testing.T) {
	account := types.NewAccount()

	encoded := base64.StdEncoding.EncodeToString(account.PrivateKey)
	data, err := json.Marshal(encoded)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	w, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, account.PublicKey.ToBase58(), w.Address())
}

func TestLoad_RejectsMalformedFiles(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "not-json-at-all"},
		{"wrong length", "[1,2,3]"},
		{"wrong type", `{"key": "value"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wallet.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
