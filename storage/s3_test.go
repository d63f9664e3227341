package storage

import (
	"errors"
	"testing"

	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3BackendRequiresBucket(t *testing.T) {
	_, err := NewS3Backend(interfaces.BackendConfiguration{Kind: interfaces.BackendRemote}, testLog)
	assert.Error(t, err)
}

func TestNewS3BackendConstruction(t *testing.T) {
	backend, err := NewS3Backend(remoteConfig(), testLog)
	require.NoError(t, err)

	assert.Equal(t, interfaces.BackendRemote, backend.Kind())
	assert.Equal(t, "s3-documents", backend.Name())
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "no such key", err: errors.New("NoSuchKey: The specified key does not exist"), want: true},
		{name: "not found code", err: errors.New("NotFound: Not Found\n\tstatus code: 404"), want: true},
		{name: "bare status", err: errors.New("status code: 404, request id: x"), want: true},
		{name: "access denied", err: errors.New("AccessDenied: Access Denied"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}
