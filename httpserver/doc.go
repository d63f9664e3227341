/*
Package httpserver implements the HTTP server for the document storage
service.

It hosts the files API, the admin API for runtime storage reconfiguration,
and the health and diagnostics endpoints, with an optional Prometheus
metrics server on a second listener.

The package includes two main components:

 1. Files API - upload, metadata, download, deletion, verification
 2. Admin API - signed-request endpoints for switching the storage backend
    at runtime

# Files API Endpoints

  - POST /api/v1/files/upload - Upload a file (multipart form)
  - GET /api/v1/files - List files with filters and pagination
  - GET /api/v1/files/{file_id} - File metadata
  - GET /api/v1/files/{file_id}/download - File content with attachment headers
  - GET /api/v1/files/{file_id}/presign - Time-limited direct download URL
  - POST /api/v1/files/{file_id}/verify - Integrity re-check
  - DELETE /api/v1/files/{file_id} - Delete content and record
  - GET /api/v1/files/validation/rules - Public upload limits

# Admin API Endpoints

  - GET /api/v1/admin/storage-config - Active configuration, credentials redacted
  - PUT /api/v1/admin/storage-config - Replace the configuration

Admin requests are authenticated with ECDSA signatures over the request
path and body, carried in the X-Admin-ID and X-Admin-Signature headers.
Because backends are resolved on every call, a configuration update takes
effect on the next request with no restart.

# Health Endpoints

  - GET /livez - Liveness check
  - GET /readyz - Readiness check; degrades to 503 while the active storage
    backend or the metadata store cannot serve
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

# Example Usage

	cfg := &api.HTTPServerConfig{
		ListenAddr:               ":8080",
		MetricsAddr:              ":9090",
		Log:                      logger,
		DrainDuration:            30 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}

	files := filehandler.NewHandler(documentVault, recordStore, logger)
	admin := httpserver.NewAdminHandler(runtimeSource, adminPubKeys, logger)
	prober := httpserver.ServiceProber{Resolver: resolver, Store: recordStore}

	server, err := httpserver.New(cfg, files, admin, prober)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	server.RunInBackground()
	defer server.Shutdown()
*/
package httpserver
