package secretstore

import (
	"fmt"
	"os"
)

// Store is the narrow interface the core consumes for credential material.
// Implementations may be file-backed, env-backed, or a real KMS; the core
// never owns secrets, only asks for them by name.
type Store interface {
	// HasKey reports whether name is registered. When requireDecryptable is
	// true, the name must also be usable by GetDecryptedKey right now.
	HasKey(name string, requireDecryptable bool) bool
	// GetDecryptedKey returns the plaintext secret material for name.
	GetDecryptedKey(name string) (string, error)
}

// EnvStore resolves secret names directly to environment variables. Nothing
// is encrypted at rest, so requireDecryptable adds no extra condition beyond
// the variable being set.
type EnvStore struct{}

// NewEnvStore creates an environment-backed secret store.
func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

// HasKey implements Store.
func (s *EnvStore) HasKey(name string, requireDecryptable bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	if requireDecryptable {
		return v != ""
	}
	return true
}

// GetDecryptedKey implements Store.
func (s *EnvStore) GetDecryptedKey(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("secretstore: %s is not set", name)
	}
	return v, nil
}

// DiscoverIndexedNames returns the ordered secret names for a provider's
// credential pool: base, then base_2, base_3, ... stopping at the first
// unset index, per the indexed-variant convention (DEEPSEEK_API_KEY,
// DEEPSEEK_API_KEY_2, ...).
func DiscoverIndexedNames(store Store, base string) []string {
	var names []string
	if store.HasKey(base, false) {
		names = append(names, base)
	}
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		if !store.HasKey(name, false) {
			break
		}
		names = append(names, name)
	}
	return names
}
