// Package cryptoname turns logical document identity into opaque storage
// names. Names are AES-256-GCM ciphertext under a key derived from the
// configured secret, so nothing about the uploader leaks through directory
// listings or object keys, while holders of the secret can still reverse a
// name for diagnostics.
package cryptoname

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/formvault/document-storage-backend/interfaces"
)

const (
	// keyIterations is the PBKDF2 work factor.
	keyIterations = 100000

	// keyLength is 32 bytes for AES-256.
	keyLength = 32

	// nonceLength is the standard GCM nonce size. The nonce is prefixed to
	// the ciphertext inside the encoded name.
	nonceLength = 12

	// randomSuffixLength is how many random bytes are mixed into every
	// plaintext so identical (id, filename) pairs still produce distinct
	// names.
	randomSuffixLength = 8

	// retryTokenLength is the extra randomness mixed in on collision
	// retries.
	retryTokenLength = 4
)

// keySalt is fixed so the same secret re-derives the same key across
// restarts: names written before a redeploy stay reversible after one.
// Changing it invalidates reversal of all previously written names.
var keySalt = []byte("formvault-document-name-salt-v1")

// UnknownName is what DecryptName yields for foreign or tampered names.
const UnknownName = "unknown"

// Namer encrypts and reverses opaque storage names. The derived key is
// read-only after construction; a Namer is safe for concurrent use.
type Namer struct {
	aead cipher.AEAD
}

// New derives the naming key from secret via PBKDF2-HMAC-SHA256 and prepares
// the AEAD. The derivation is deterministic: equal secrets yield equal keys.
func New(secret string) (*Namer, error) {
	if secret == "" {
		return nil, errors.New("naming secret must not be empty")
	}

	key := pbkdf2.Key([]byte(secret), keySalt, keyIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Namer{aead: aead}, nil
}

// EncryptName produces an opaque name for (logicalID, filename). The
// plaintext is "{id}_{filename}_{random hex}"; attempt > 0 mixes an extra
// random token so a collision retry cannot reproduce the colliding name.
// The lower-cased original extension is appended for filesystem and
// content-type compatibility.
func (n *Namer) EncryptName(logicalID interfaces.DocumentID, filename string, attempt int) (interfaces.OpaqueName, error) {
	if filename == "" {
		filename = UnknownName
	}

	suffix, err := randomHex(randomSuffixLength)
	if err != nil {
		return "", err
	}

	inner := filename
	if attempt > 0 {
		token, err := randomHex(retryTokenLength)
		if err != nil {
			return "", err
		}
		inner = token + "_" + filename
	}
	plaintext := fmt.Sprintf("%s_%s_%s", logicalID, inner, suffix)

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the ciphertext and tag to the nonce prefix.
	sealed := n.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	encoded := base64.RawURLEncoding.EncodeToString(sealed)

	ext := strings.ToLower(filepath.Ext(filename))
	return interfaces.OpaqueName(encoded + ext), nil
}

// DecryptName reverses an opaque name for diagnostics. Admin tooling depends
// on this never failing: undecodable, truncated or foreign names all yield
// UnknownName.
func (n *Namer) DecryptName(name interfaces.OpaqueName) string {
	s := name.String()
	encoded := strings.TrimSuffix(s, filepath.Ext(s))

	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return UnknownName
	}
	if len(sealed) <= nonceLength {
		return UnknownName
	}

	plaintext, err := n.aead.Open(nil, sealed[:nonceLength], sealed[nonceLength:], nil)
	if err != nil {
		return UnknownName
	}
	return string(plaintext)
}

func randomHex(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate randomness: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
