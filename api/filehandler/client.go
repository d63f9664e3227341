package filehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/formvault/document-storage-backend/api"
	"github.com/formvault/document-storage-backend/interfaces"
)

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Code, e.Message)
}

// Client is a typed client for the files API. It implements
// api.FileServiceProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a files API client.
//
// Parameters:
//   - baseURL: The base URL of the service (e.g., "http://localhost:8080")
//   - timeout: Request timeout duration (optional, default 30 seconds)
func NewClient(baseURL string, timeout ...time.Duration) *Client {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// Upload submits a file as a multipart form and returns its stored
// description.
func (c *Client) Upload(ctx context.Context, uploadReq api.UploadRequest) (*api.UploadResponse, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formFieldFile, uploadReq.Filename))
	if uploadReq.ContentType != "" {
		partHeader.Set("Content-Type", uploadReq.ContentType)
	}
	part, err := form.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, uploadReq.Content); err != nil {
		return nil, fmt.Errorf("failed to write file content: %w", err)
	}

	if err := form.WriteField(formFieldDocumentType, uploadReq.DocumentType.String()); err != nil {
		return nil, fmt.Errorf("failed to write document_type field: %w", err)
	}
	if uploadReq.ApplicationID != "" {
		if err := form.WriteField(formFieldApplicationID, uploadReq.ApplicationID); err != nil {
			return nil, fmt.Errorf("failed to write application_id field: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/files/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var resp api.UploadResponse
	if err := c.do(req, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Info fetches metadata for a file ID.
func (c *Client) Info(ctx context.Context, id interfaces.DocumentID) (*api.FileInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileURL(id, ""), nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var resp api.FileInfo
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download fetches the stored content for a file ID.
func (c *Client) Download(ctx context.Context, id interfaces.DocumentID) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileURL(id, "download"), nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read download body: %w", err)
	}
	return data, nil
}

// Delete removes a file and its metadata.
func (c *Client) Delete(ctx context.Context, id interfaces.DocumentID) (*api.DeleteResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.fileURL(id, ""), nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var resp api.DeleteResponse
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify asks the server to recheck the stored content hash.
func (c *Client) Verify(ctx context.Context, id interfaces.DocumentID) (*api.VerifyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.fileURL(id, "verify"), nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var resp api.VerifyResponse
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Presign requests a time-limited direct download URL. A zero ttl leaves
// the choice to the server.
func (c *Client) Presign(ctx context.Context, id interfaces.DocumentID, ttl time.Duration) (*api.PresignResponse, error) {
	presignURL := c.fileURL(id, "presign")
	if ttl > 0 {
		presignURL += "?ttl=" + strconv.FormatInt(int64(ttl.Seconds()), 10)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, presignURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var resp api.PresignResponse
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rules fetches the server's active upload limits.
func (c *Client) Rules(ctx context.Context) (*interfaces.ValidationRules, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/files/validation/rules", nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var resp interfaces.ValidationRules
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOptions narrow and page a List call.
type ListOptions struct {
	ApplicationID string
	DocumentType  interfaces.DocumentType
	Limit         int
	Offset        int
}

// List fetches uploaded files, newest first.
func (c *Client) List(ctx context.Context, opts ListOptions) (*api.ListResponse, error) {
	query := url.Values{}
	if opts.ApplicationID != "" {
		query.Set(formFieldApplicationID, opts.ApplicationID)
	}
	if opts.DocumentType != "" {
		query.Set(formFieldDocumentType, opts.DocumentType.String())
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}

	listURL := c.baseURL + "/api/v1/files"
	if encoded := query.Encode(); encoded != "" {
		listURL += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var resp api.ListResponse
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) fileURL(id interfaces.DocumentID, action string) string {
	u := fmt.Sprintf("%s/api/v1/files/%s", c.baseURL, id)
	if action != "" {
		u += "/" + action
	}
	return u
}

// do executes the request and decodes the JSON response into out when the
// status matches, or an APIError from the error envelope when it does not.
func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("server returned %d, failed to read body: %w", resp.StatusCode, err)
	}

	var envelope api.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code == "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return &APIError{
		Status:  resp.StatusCode,
		Code:    envelope.Error.Code,
		Message: envelope.Error.Message,
	}
}
