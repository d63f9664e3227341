package clients

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/formvault/document-storage-backend/httpserver"
)

// AdminClient provides methods for interacting with the storage admin API.
// It handles authentication, request signing, and response parsing.
type AdminClient struct {
	baseURL    string
	adminID    string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client
}

// NewAdminClient creates a new admin client for the storage admin API.
//
// Parameters:
//   - baseURL: The base URL of the service (e.g., "http://localhost:8080")
//   - adminID: The administrator's ID as registered in the admin keys file
//   - privateKey: The administrator's ECDSA private key
//   - timeout: Request timeout duration (optional, default 30 seconds)
//
// Returns:
//   - Configured AdminClient instance
func NewAdminClient(baseURL, adminID string, privateKey *ecdsa.PrivateKey, timeout ...time.Duration) *AdminClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &AdminClient{
		baseURL:    baseURL,
		adminID:    adminID,
		privateKey: privateKey,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// GetStorageConfig fetches the active storage configuration. Credentials are
// redacted server-side: the view reports their presence, never their values.
//
// Returns:
//   - The redacted configuration view
//   - Error if the request fails
func (c *AdminClient) GetStorageConfig() (httpserver.StorageConfigView, error) {
	url := fmt.Sprintf("%s/api/v1/admin/storage-config", c.baseURL)

	req, err := CreateSignedAdminRequest("GET", url, nil, c.adminID, c.privateKey)
	if err != nil {
		return httpserver.StorageConfigView{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return httpserver.StorageConfigView{}, fmt.Errorf("storage config request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return httpserver.StorageConfigView{}, fmt.Errorf("storage config request failed with code %d: %s", resp.StatusCode, string(body))
	}

	var view httpserver.StorageConfigView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return httpserver.StorageConfigView{}, fmt.Errorf("failed to parse storage config response: %w", err)
	}

	return view, nil
}

// UpdateStorageConfig replaces the active storage configuration. Backends
// are resolved per request, so the update takes effect on the server's next
// request without a restart.
//
// Parameters:
//   - update: The new configuration (kind "local" or "remote" plus the
//     remote endpoint, bucket, region and credentials as needed)
//
// Returns:
//   - The applied configuration view, credentials redacted
//   - Error if the request fails
func (c *AdminClient) UpdateStorageConfig(update httpserver.StorageConfigUpdate) (httpserver.StorageConfigView, error) {
	url := fmt.Sprintf("%s/api/v1/admin/storage-config", c.baseURL)

	reqJSON, err := json.Marshal(update)
	if err != nil {
		return httpserver.StorageConfigView{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := CreateSignedAdminRequest("PUT", url, reqJSON, c.adminID, c.privateKey)
	if err != nil {
		return httpserver.StorageConfigView{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return httpserver.StorageConfigView{}, fmt.Errorf("storage config update failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return httpserver.StorageConfigView{}, fmt.Errorf("storage config update failed with code %d: %s", resp.StatusCode, string(body))
	}

	var view httpserver.StorageConfigView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return httpserver.StorageConfigView{}, fmt.Errorf("failed to parse storage config response: %w", err)
	}

	return view, nil
}

// CreateSignedAdminRequest creates a new HTTP request with admin authentication headers.
//
// This function:
//   - Creates an HTTP request with the specified method, URL, and body
//   - Signs the request path and body using the admin's private key
//   - Sets the appropriate authentication headers
//
// The signature is created by:
//  1. Concatenating the request path with the request body (if any)
//  2. Computing the SHA-256 hash of this message
//  3. Signing the hash with the admin's private key using ECDSA
//  4. Base64-encoding the signature
//
// Parameters:
//   - method: HTTP method (e.g., "GET", "PUT")
//   - reqUrl: The request URL
//   - body: The request body (can be nil)
//   - adminID: The administrator's ID
//   - privateKey: The administrator's ECDSA private key
//
// Returns:
//   - The signed HTTP request
//   - Error if request creation or signing fails
func CreateSignedAdminRequest(method, reqUrl string, body []byte, adminID string, privateKey *ecdsa.PrivateKey) (*http.Request, error) {
	var req *http.Request
	var err error

	// Create the request with the specified body
	if body != nil {
		req, err = http.NewRequest(method, reqUrl, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, reqUrl, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}

	// Extract the path from the URL
	// We need just the path for signing, not the full URL
	parsedURL, err := url.Parse(reqUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	// Set the admin ID header
	req.Header.Set("X-Admin-ID", adminID)

	// Prepare the message to sign (path + body)
	message := parsedURL.Path
	if body != nil {
		message += string(body)
	}

	// Compute the hash of the message
	hash := sha256.Sum256([]byte(message))

	// Sign the hash with the admin's private key
	signature, err := ecdsa.SignASN1(rand.Reader, privateKey, hash[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	// Base64 encode the signature and set the header
	signatureStr := base64.StdEncoding.EncodeToString(signature)
	req.Header.Set("X-Admin-Signature", signatureStr)

	return req, nil
}

// SignAdminRequest adds authentication headers to an existing HTTP request.
//
// This is useful when you already have a request object and need to add
// admin authentication to it.
//
// Parameters:
//   - req: The HTTP request to sign
//   - adminID: The administrator's ID
//   - privateKey: The administrator's ECDSA private key
//
// Returns:
//   - Error if signing fails
func SignAdminRequest(req *http.Request, adminID string, privateKey *ecdsa.PrivateKey) error {
	if req == nil {
		return errors.New("request cannot be nil")
	}

	// Set the admin ID header
	req.Header.Set("X-Admin-ID", adminID)

	// Prepare the message to sign (path + body)
	message := req.URL.Path

	// If there's a body, read it
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}

		// Restore the body for the actual request
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		// Add body to the message
		message += string(bodyBytes)
	}

	// Compute the hash of the message
	hash := sha256.Sum256([]byte(message))

	// Sign the hash with the admin's private key
	signature, err := ecdsa.SignASN1(rand.Reader, privateKey, hash[:])
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	// Base64 encode the signature and set the header
	signatureStr := base64.StdEncoding.EncodeToString(signature)
	req.Header.Set("X-Admin-Signature", signatureStr)

	return nil
}
