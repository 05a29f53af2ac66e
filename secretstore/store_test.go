package secretstore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvStore_HasKeyAndGetDecryptedKey(t *testing.T) {
	t.Setenv("SECRETSTORE_TEST_KEY", "sk-test-value")
	store := NewEnvStore()

	assert.True(t, store.HasKey("SECRETSTORE_TEST_KEY", false))
	assert.True(t, store.HasKey("SECRETSTORE_TEST_KEY", true))
	assert.False(t, store.HasKey("SECRETSTORE_TEST_KEY_MISSING", false))

	v, err := store.GetDecryptedKey("SECRETSTORE_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-value", v)
}

func TestEnvStore_GetDecryptedKey_Unset(t *testing.T) {
	store := NewEnvStore()
	_, err := store.GetDecryptedKey("SECRETSTORE_TEST_KEY_DOES_NOT_EXIST")
	assert.Error(t, err)
}

func TestEnvStore_EmptyValueIsNotDecryptable(t *testing.T) {
	t.Setenv("SECRETSTORE_TEST_EMPTY", "")
	store := NewEnvStore()

	assert.True(t, store.HasKey("SECRETSTORE_TEST_EMPTY", false))
	assert.False(t, store.HasKey("SECRETSTORE_TEST_EMPTY", true))

	_, err := store.GetDecryptedKey("SECRETSTORE_TEST_EMPTY")
	assert.Error(t, err)
}

func TestDiscoverIndexedNames(t *testing.T) {
	os.Unsetenv("SECRETSTORE_POOL_TEST")
	os.Unsetenv("SECRETSTORE_POOL_TEST_2")
	os.Unsetenv("SECRETSTORE_POOL_TEST_3")
	os.Unsetenv("SECRETSTORE_POOL_TEST_4")

	t.Setenv("SECRETSTORE_POOL_TEST", "k0")
	t.Setenv("SECRETSTORE_POOL_TEST_2", "k1")
	t.Setenv("SECRETSTORE_POOL_TEST_3", "k2")
	// index 4 intentionally unset: discovery stops before it

	store := NewEnvStore()
	names := DiscoverIndexedNames(store, "SECRETSTORE_POOL_TEST")

	assert.Equal(t, []string{
		"SECRETSTORE_POOL_TEST",
		"SECRETSTORE_POOL_TEST_2",
		"SECRETSTORE_POOL_TEST_3",
	}, names)
}

func TestDiscoverIndexedNames_NoBaseKey(t *testing.T) {
	os.Unsetenv("SECRETSTORE_POOL_EMPTY")
	store := NewEnvStore()
	names := DiscoverIndexedNames(store, "SECRETSTORE_POOL_EMPTY")
	assert.Empty(t, names)
}
