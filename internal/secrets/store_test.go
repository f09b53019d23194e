package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// os.UserConfigDir honors XDG_CONFIG_HOME on linux, so tests redirect
// the store into a scratch dir.
func redirectStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestStoreFetchDeleteRoundTrip(t *testing.T) {
	dir := redirectStore(t)

	_, err := FetchProviderKey("gemini")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, StoreProviderKey("Gemini", "sk-secret-123"))
	got, err := FetchProviderKey("gemini") // provider name is case-insensitive
	require.NoError(t, err)
	require.Equal(t, "sk-secret-123", got)

	// Nothing about the key is readable from the file itself.
	raw, err := os.ReadFile(filepath.Join(dir, "tally", "keys.json"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "sk-secret-123")

	require.NoError(t, DeleteProviderKey("gemini"))
	_, err = FetchProviderKey("gemini")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreKeepsOtherProviders(t *testing.T) {
	redirectStore(t)

	require.NoError(t, StoreProviderKey("gemini", "key-a"))
	require.NoError(t, StoreProviderKey("openai", "key-b"))
	require.NoError(t, DeleteProviderKey("gemini"))

	got, err := FetchProviderKey("openai")
	require.NoError(t, err)
	require.Equal(t, "key-b", got)
}

func TestStoreRejectsBlankProvider(t *testing.T) {
	redirectStore(t)

	err := StoreProviderKey("   ", "key")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "provider"))
}
