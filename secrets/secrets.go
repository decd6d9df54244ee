// Package secrets resolves per-agent LLM API keys. Keys are stored as
// AES-256-GCM ciphertext on the agent record and decrypted on demand under a
// process-level master key; plaintext keys never touch the store.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/openagora/agora/core"
)

// Credentials is a resolved provider/key pair for one agent.
type Credentials struct {
	Provider string
	APIKey   string
}

// Resolver turns an agent record into usable credentials.
type Resolver interface {
	Resolve(agent *core.Agent) (Credentials, error)
}

// AESResolver decrypts agent key blobs with a master key from process
// configuration.
type AESResolver struct {
	masterKey string
}

// NewResolver creates a resolver bound to the given master key.
func NewResolver(masterKey string) (*AESResolver, error) {
	if masterKey == "" {
		return nil, errors.New("master key must not be empty")
	}
	return &AESResolver{masterKey: masterKey}, nil
}

// Resolve decrypts the agent's API key blob.
func (r *AESResolver) Resolve(agent *core.Agent) (Credentials, error) {
	if agent.EncryptedAPIKey == "" {
		return Credentials{}, fmt.Errorf("agent %s has no API key configured", agent.ID)
	}
	key, err := Decrypt(r.masterKey, agent.EncryptedAPIKey)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to decrypt API key for agent %s: %v", agent.ID, err)
	}
	return Credentials{Provider: agent.Provider, APIKey: key}, nil
}

func gcmFor(masterKey string) (cipher.AEAD, error) {
	sum := sha256.Sum256([]byte(masterKey))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under the master key and returns a base64 blob of
// nonce||ciphertext.
func Encrypt(masterKey, plaintext string) (string, error) {
	gcm, err := gcmFor(masterKey)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt.
func Decrypt(masterKey, blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", errors.New("invalid ciphertext encoding")
	}
	gcm, err := gcmFor(masterKey)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.New("decryption failed")
	}
	return string(plaintext), nil
}
