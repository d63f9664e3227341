package filehandler

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formvault/document-storage-backend/api"
	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/formvault/document-storage-backend/metadata"
	"github.com/formvault/document-storage-backend/validation"
)

// Compile-time check that the client covers the provider surface.
var _ api.FileServiceProvider = (*Client)(nil)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	env := newTestEnv(t, metadata.NewMemoryStore(), validation.Config{})
	server := httptest.NewServer(env.mux)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second)
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	content := jpegBytes(1024)
	docType, err := interfaces.NewDocumentType("passport")
	require.NoError(t, err)

	uploaded, err := client.Upload(ctx, api.UploadRequest{
		Filename:      "passport.jpg",
		DocumentType:  docType,
		ApplicationID: "app-1",
		ContentType:   "image/jpeg",
		Content:       bytes.NewReader(content),
	})
	require.NoError(t, err)
	assert.Equal(t, docType, uploaded.DocumentType)
	assert.Contains(t, uploaded.Hash.String(), "sha256:")

	info, err := client.Info(ctx, uploaded.ID)
	require.NoError(t, err)
	assert.Equal(t, uploaded.ID, info.ID)
	assert.Equal(t, "passport.jpg", info.OriginalFilename)

	downloaded, err := client.Download(ctx, uploaded.ID)
	require.NoError(t, err)
	assert.Equal(t, content, downloaded)

	verified, err := client.Verify(ctx, uploaded.ID)
	require.NoError(t, err)
	assert.True(t, verified.IntegrityValid)

	listed, err := client.List(ctx, ListOptions{ApplicationID: "app-1"})
	require.NoError(t, err)
	require.Equal(t, 1, listed.Count)
	assert.Equal(t, uploaded.ID, listed.Files[0].ID)

	rules, err := client.Rules(ctx)
	require.NoError(t, err)
	assert.Equal(t, validation.DefaultMaxSizeBytes, rules.MaxSizeBytes)

	deleted, err := client.Delete(ctx, uploaded.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	_, err = client.Info(ctx, uploaded.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, api.CodeFileNotFound, apiErr.Code)
}

func TestClientUploadRejection(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	docType, err := interfaces.NewDocumentType("passport")
	require.NoError(t, err)

	_, err = client.Upload(ctx, api.UploadRequest{
		Filename:     "fake.jpg",
		DocumentType: docType,
		ContentType:  "image/jpeg",
		Content:      bytes.NewReader(pngBytes(256)),
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "SIGNATURE_MISMATCH", apiErr.Code)
}

func TestClientPresignUnsupported(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	docType, err := interfaces.NewDocumentType("passport")
	require.NoError(t, err)
	uploaded, err := client.Upload(ctx, api.UploadRequest{
		Filename:     "photo.jpg",
		DocumentType: docType,
		ContentType:  "image/jpeg",
		Content:      bytes.NewReader(jpegBytes(256)),
	})
	require.NoError(t, err)

	_, err = client.Presign(ctx, uploaded.ID, time.Hour)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.CodePresignUnsupported, apiErr.Code)
}
