package secrets

import (
	"testing"

	"github.com/openagora/agora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := Encrypt("master-key", "sk-test-1234")
	require.NoError(t, err)
	require.NotEmpty(t, blob)
	assert.NotContains(t, blob, "sk-test-1234")

	plain, err := Decrypt("master-key", blob)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-1234", plain)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	a, err := Encrypt("master-key", "same plaintext")
	require.NoError(t, err)
	b, err := Encrypt("master-key", "same plaintext")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	blob, err := Encrypt("master-key", "sk-test-1234")
	require.NoError(t, err)

	_, err = Decrypt("other-key", blob)
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := Decrypt("master-key", "not base64 at all!!!")
	assert.Error(t, err)

	_, err = Decrypt("master-key", "YWJj") // valid base64, too short for a nonce
	assert.Error(t, err)
}

func TestNewResolverRequiresMasterKey(t *testing.T) {
	_, err := NewResolver("")
	assert.Error(t, err)
}

func TestResolverResolvesAgentCredentials(t *testing.T) {
	resolver, err := NewResolver("master-key")
	require.NoError(t, err)

	blob, err := Encrypt("master-key", "sk-live-9999")
	require.NoError(t, err)

	agent := &core.Agent{ID: "a1", Provider: "openai", EncryptedAPIKey: blob}
	creds, err := resolver.Resolve(agent)
	require.NoError(t, err)
	assert.Equal(t, "openai", creds.Provider)
	assert.Equal(t, "sk-live-9999", creds.APIKey)
}

func TestResolverRejectsAgentWithoutKey(t *testing.T) {
	resolver, err := NewResolver("master-key")
	require.NoError(t, err)

	_, err = resolver.Resolve(&core.Agent{ID: "a1", Provider: "openai"})
	assert.Error(t, err)
}
