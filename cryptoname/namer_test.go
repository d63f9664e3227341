package cryptoname

import (
	"strings"
	"testing"

	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-value"

func TestEncryptNameRoundTrip(t *testing.T) {
	namer, err := New(testSecret)
	require.NoError(t, err)

	id := interfaces.NewDocumentID()
	name, err := namer.EncryptName(id, "drivers_license.jpg", 0)
	require.NoError(t, err)

	decrypted := namer.DecryptName(name)
	assert.Contains(t, decrypted, id.String())
	assert.Contains(t, decrypted, "drivers_license.jpg")
}

func TestEncryptNameExtension(t *testing.T) {
	namer, err := New(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name     string
		filename string
		wantExt  string
	}{
		{name: "jpg", filename: "photo.jpg", wantExt: ".jpg"},
		{name: "uppercase lowered", filename: "SCAN.PDF", wantExt: ".pdf"},
		{name: "multiple dots keep last", filename: "archive.backup.png", wantExt: ".png"},
		{name: "no extension", filename: "document", wantExt: ""},
		{name: "empty filename", filename: "", wantExt: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := namer.EncryptName(interfaces.NewDocumentID(), tt.filename, 0)
			require.NoError(t, err)

			if tt.wantExt == "" {
				assert.NotContains(t, name.String(), ".")
			} else {
				assert.True(t, strings.HasSuffix(name.String(), tt.wantExt), "name %q should end with %q", name, tt.wantExt)
			}
		})
	}
}

func TestEncryptNameIsOpaque(t *testing.T) {
	namer, err := New(testSecret)
	require.NoError(t, err)

	id := interfaces.NewDocumentID()
	name, err := namer.EncryptName(id, "photo.jpg", 0)
	require.NoError(t, err)

	// The raw identity must not appear in the name.
	assert.NotContains(t, name.String(), id.String())
	assert.NotContains(t, name.String(), "photo")

	// Names must survive the untrusted-input check used at API boundaries.
	_, err = interfaces.ParseOpaqueName(name.String())
	assert.NoError(t, err)

	// URL-safe alphabet only, unpadded.
	base := strings.TrimSuffix(name.String(), ".jpg")
	assert.NotContains(t, base, "/")
	assert.NotContains(t, base, "+")
	assert.NotContains(t, base, "=")
}

func TestEncryptNameDistinct(t *testing.T) {
	namer, err := New(testSecret)
	require.NoError(t, err)

	id := interfaces.NewDocumentID()
	first, err := namer.EncryptName(id, "photo.jpg", 0)
	require.NoError(t, err)
	second, err := namer.EncryptName(id, "photo.jpg", 0)
	require.NoError(t, err)

	// Random suffix and nonce make every generation unique.
	assert.NotEqual(t, first, second)
}

func TestEncryptNameRetryAttempt(t *testing.T) {
	namer, err := New(testSecret)
	require.NoError(t, err)

	id := interfaces.NewDocumentID()
	name, err := namer.EncryptName(id, "photo.jpg", 1)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name.String(), ".jpg"))

	// A retry name still reverses to the same identity.
	decrypted := namer.DecryptName(name)
	assert.Contains(t, decrypted, id.String())
	assert.Contains(t, decrypted, "photo.jpg")
}

func TestEncryptNameEmptyFilename(t *testing.T) {
	namer, err := New(testSecret)
	require.NoError(t, err)

	name, err := namer.EncryptName(interfaces.NewDocumentID(), "", 0)
	require.NoError(t, err)
	assert.Contains(t, namer.DecryptName(name), UnknownName)
}

func TestDecryptNameNeverFails(t *testing.T) {
	namer, err := New(testSecret)
	require.NoError(t, err)

	foreign, err := New("some-other-secret")
	require.NoError(t, err)
	foreignName, err := foreign.EncryptName(interfaces.NewDocumentID(), "photo.jpg", 0)
	require.NoError(t, err)

	valid, err := namer.EncryptName(interfaces.NewDocumentID(), "photo.jpg", 0)
	require.NoError(t, err)
	tampered := "A" + valid.String()[1:]
	if tampered == valid.String() {
		tampered = "B" + valid.String()[1:]
	}

	tests := []struct {
		name  string
		input string
	}{
		{name: "not base64", input: "!!!not-base64!!!.jpg"},
		{name: "padded base64", input: "QUJDRA==.jpg"},
		{name: "too short", input: "QUJD.jpg"},
		{name: "wrong key", input: foreignName.String()},
		{name: "tampered ciphertext", input: tampered},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, UnknownName, namer.DecryptName(interfaces.OpaqueName(tt.input)))
		})
	}
}

func TestKeyDerivationDeterministic(t *testing.T) {
	first, err := New(testSecret)
	require.NoError(t, err)
	second, err := New(testSecret)
	require.NoError(t, err)

	// A restart re-derives the same key, so names written before it stay
	// reversible after it.
	id := interfaces.NewDocumentID()
	name, err := first.EncryptName(id, "photo.jpg", 0)
	require.NoError(t, err)
	assert.Contains(t, second.DecryptName(name), id.String())
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
