package validation

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// countingReadSeeker records stream activity so tests can prove the cheap
// checks never touch content.
type countingReadSeeker struct {
	*bytes.Reader
	reads int
	seeks int
}

func (c *countingReadSeeker) Read(p []byte) (int, error) {
	c.reads++
	return c.Reader.Read(p)
}

func (c *countingReadSeeker) Seek(offset int64, whence int) (int64, error) {
	c.seeks++
	return c.Reader.Seek(offset, whence)
}

func jpegContent(size int) []byte {
	content := make([]byte, size)
	copy(content, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	return content
}

func pngContent(size int) []byte {
	content := make([]byte, size)
	copy(content, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	return content
}

func newCandidate(filename, mimeType string, content []byte) interfaces.UploadCandidate {
	return interfaces.UploadCandidate{
		Filename:     filename,
		DeclaredMIME: mimeType,
		DeclaredSize: int64(len(content)),
		Content:      bytes.NewReader(content),
	}
}

func TestValidatorSizeExceeded(t *testing.T) {
	v := New(Config{MaxSizeBytes: 100}, testLog)

	content := &countingReadSeeker{Reader: bytes.NewReader(jpegContent(10))}
	err := v.Validate(interfaces.UploadCandidate{
		Filename:     "photo.jpg",
		DeclaredMIME: "image/jpeg",
		DeclaredSize: 101,
		Content:      content,
	})

	var sizeErr *interfaces.SizeExceededError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, int64(100), sizeErr.Max)
	assert.Equal(t, int64(101), sizeErr.Actual)
	assert.Equal(t, "SIZE_EXCEEDED", sizeErr.Code())

	// Declared size alone must reject the upload, without touching content.
	assert.Zero(t, content.reads)
	assert.Zero(t, content.seeks)
}

func TestValidatorUnknownSizePassesSizeCheck(t *testing.T) {
	v := New(Config{}, testLog)

	// Size zero means the caller could not determine it up front; later
	// stages still apply.
	err := v.Validate(interfaces.UploadCandidate{
		Filename:     "photo.jpg",
		DeclaredMIME: "image/jpeg",
		DeclaredSize: 0,
		Content:      bytes.NewReader(jpegContent(64)),
	})
	assert.NoError(t, err)
}

func TestValidatorMIMENotAllowed(t *testing.T) {
	v := New(Config{}, testLog)

	content := &countingReadSeeker{Reader: bytes.NewReader(jpegContent(10))}
	err := v.Validate(interfaces.UploadCandidate{
		Filename:     "notes.txt",
		DeclaredMIME: "text/plain",
		DeclaredSize: 10,
		Content:      content,
	})

	var typeErr *interfaces.TypeNotAllowedError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "text/plain", typeErr.Value)
	assert.Equal(t, DefaultAllowedMIMETypes, typeErr.Allowed)
	assert.Zero(t, content.reads)
}

func TestValidatorExtensionNotAllowed(t *testing.T) {
	v := New(Config{}, testLog)

	tests := []struct {
		name     string
		filename string
		wantExt  string
	}{
		{name: "disallowed extension", filename: "payload.exe", wantExt: "exe"},
		{name: "no extension", filename: "document", wantExt: ""},
		{name: "trailing dot", filename: "document.", wantExt: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(newCandidate(tt.filename, "image/jpeg", jpegContent(10)))

			var typeErr *interfaces.TypeNotAllowedError
			require.ErrorAs(t, err, &typeErr)
			assert.Equal(t, tt.wantExt, typeErr.Value)
		})
	}
}

func TestValidatorExtensionCaseInsensitive(t *testing.T) {
	v := New(Config{}, testLog)

	err := v.Validate(newCandidate("SCAN.JPG", "image/jpeg", jpegContent(32)))
	assert.NoError(t, err)
}

func TestValidatorMalwarePatterns(t *testing.T) {
	v := New(Config{}, testLog)

	tests := []struct {
		name        string
		inject      string
		wantPattern string
	}{
		{name: "script tag", inject: "<script>alert(1)</script>", wantPattern: "<script"},
		{name: "uppercase evades nothing", inject: "<SCRIPT>", wantPattern: "<script"},
		{name: "php tag", inject: "<?php system('id');", wantPattern: "<?php"},
		{name: "javascript url", inject: "javascript:void(0)", wantPattern: "javascript:"},
		{name: "shell exec", inject: "shell_exec('ls')", wantPattern: "shell_exec("},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := jpegContent(512)
			copy(content[64:], []byte(tt.inject))

			err := v.Validate(newCandidate("photo.jpg", "image/jpeg", content))

			var malwareErr *interfaces.MalwareSuspectedError
			require.ErrorAs(t, err, &malwareErr)
			assert.Equal(t, tt.wantPattern, malwareErr.Pattern)
			assert.Equal(t, "MALWARE_DETECTED", malwareErr.Code())
		})
	}
}

func TestValidatorScanLimitedToHeader(t *testing.T) {
	v := New(Config{}, testLog)

	// A pattern past the first 1KB is outside the scan window.
	content := jpegContent(4096)
	copy(content[2000:], []byte("<script>"))

	err := v.Validate(newCandidate("photo.jpg", "image/jpeg", content))
	assert.NoError(t, err)
}

func TestValidatorSignatureMismatch(t *testing.T) {
	v := New(Config{}, testLog)

	// PNG bytes declared as JPEG must be caught by the magic-number check.
	err := v.Validate(newCandidate("photo.jpg", "image/jpeg", pngContent(64)))

	var sigErr *interfaces.SignatureMismatchError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, "image/jpeg", sigErr.DeclaredType)
	assert.Equal(t, "SIGNATURE_MISMATCH", sigErr.Code())
}

func TestValidatorValidUploads(t *testing.T) {
	v := New(Config{}, testLog)

	pdf := make([]byte, 256)
	copy(pdf, []byte("%PDF-1.7\n"))

	tests := []struct {
		name      string
		candidate interfaces.UploadCandidate
	}{
		{name: "jpeg", candidate: newCandidate("photo.jpg", "image/jpeg", jpegContent(1000))},
		{name: "jpeg alternate extension", candidate: newCandidate("photo.jpeg", "image/jpeg", jpegContent(64))},
		{name: "png", candidate: newCandidate("scan.png", "image/png", pngContent(64))},
		{name: "pdf", candidate: newCandidate("policy.pdf", "application/pdf", pdf)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, v.Validate(tt.candidate))
		})
	}
}

func TestValidatorRestoresOffset(t *testing.T) {
	v := New(Config{}, testLog)

	tests := []struct {
		name    string
		content []byte
		wantErr bool
	}{
		{name: "valid upload", content: jpegContent(2048), wantErr: false},
		{name: "rejected upload", content: pngContent(2048), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bytes.NewReader(tt.content)
			err := v.Validate(interfaces.UploadCandidate{
				Filename:     "photo.jpg",
				DeclaredMIME: "image/jpeg",
				DeclaredSize: int64(len(tt.content)),
				Content:      reader,
			})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			// Storage re-reads from the top, so validation must leave the
			// stream where it found it.
			pos, seekErr := reader.Seek(0, io.SeekCurrent)
			require.NoError(t, seekErr)
			assert.Equal(t, int64(0), pos)
		})
	}
}

func TestValidatorShortContent(t *testing.T) {
	v := New(Config{}, testLog)

	// Content shorter than the scan window must not fail the header read.
	err := v.Validate(newCandidate("photo.jpg", "image/jpeg", jpegContent(16)))
	assert.NoError(t, err)
}

func TestValidatorRules(t *testing.T) {
	v := New(Config{MaxSizeBytes: 1024}, testLog)

	rules := v.Rules()
	assert.Equal(t, int64(1024), rules.MaxSizeBytes)
	assert.Equal(t, DefaultAllowedMIMETypes, rules.AllowedMIMETypes)
	assert.Equal(t, DefaultAllowedExtensions, rules.AllowedExtensions)
}
