/*
Package clients provides client libraries for interacting with the storage admin API.

This package implements a secure client interface for the Admin API, handling
authentication, request signing, and response processing.

# AdminClient Features

AdminClient provides methods for storage administration:

- GetStorageConfig - Fetch the active storage configuration (credentials redacted)
- UpdateStorageConfig - Replace the active storage configuration at runtime

Configuration updates take effect without a server restart because storage
backends are resolved per request from the runtime configuration source.

# Security Model

The admin client implements the same request authentication the server verifies:

- Request signing with the admin's ECDSA private key
- Signed message is the request path concatenated with the request body
- SHA-256 digest signed as an ASN.1 signature, base64-encoded
- Identity and signature carried in X-Admin-ID and X-Admin-Signature headers

# Utility Functions

The package provides utility functions for building signed requests:

- CreateSignedAdminRequest - Build a new request with authentication headers
- SignAdminRequest - Add authentication headers to an existing request

Key management helpers (GenerateAdminKeyPair, LoadAdminKeys, ParsePrivateKey)
live in the httpserver package next to the verifying handler.

# Example Usage

	// Create a new admin client
	keyPEM, _ := os.ReadFile("admin.key")
	privateKey, _ := httpserver.ParsePrivateKey(keyPEM)
	adminClient := clients.NewAdminClient(
	    "http://localhost:8080",
	    "admin-1",
	    privateKey,
	    30*time.Second,
	)

	// Inspect the active configuration
	view, err := adminClient.GetStorageConfig()

	// Switch the service to a remote backend
	view, err = adminClient.UpdateStorageConfig(httpserver.StorageConfigUpdate{
	    Kind:      "remote",
	    Endpoint:  "https://s3.example.com",
	    Bucket:    "documents",
	    Region:    "us-east-1",
	    AccessKey: "AKIA...",
	    SecretKey: "...",
	})
*/
package clients
