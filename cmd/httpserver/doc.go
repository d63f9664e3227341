// Package main (cmd/httpserver) implements the document storage server.
//
// The server exposes the files API for uploading, downloading, listing,
// verifying and deleting identity documents. Every upload passes the
// validation pipeline (size, type, content scan, magic-number check) before
// being stored under an encrypted opaque name on the active storage backend.
//
// Two storage backends are supported:
//
//   - local: flat files under a restricted-permission upload directory.
//     The default, and the fallback whenever remote storage is unusable.
//
//   - remote: an S3 or S3-compatible bucket configured with endpoint,
//     region and static credentials.
//
// The active backend is re-resolved on every request, so switching it
// through the signed admin API takes effect immediately without a restart.
// File records are kept in Redis when --redis-url is set, otherwise in
// process memory (suitable for development only).
//
// Configuration comes from command-line flags with environment fallbacks;
// a .env file in the working directory is loaded first. The naming secret
// is mandatory: the key that encrypts storage names is derived from it, and
// the same secret must be supplied across restarts for existing names to
// remain reversible.
//
// The server implements graceful shutdown on SIGINT/SIGTERM and serves
// liveness, readiness and drain endpoints alongside Prometheus metrics on a
// dedicated listener.
//
// Example usage with local storage:
//
//	document-storage-server --listen-addr=0.0.0.0:8080 \
//	    --naming-secret=change-me \
//	    --upload-dir=/var/lib/formvault/uploads
//
// Example usage with an S3-compatible backend and Redis metadata:
//
//	document-storage-server --listen-addr=0.0.0.0:8080 \
//	    --naming-secret=change-me \
//	    --storage-kind=remote \
//	    --s3-endpoint=http://minio:9000 \
//	    --s3-bucket=documents \
//	    --s3-access-key=minio --s3-secret-key=minio123 \
//	    --redis-url=redis://localhost:6379/0 \
//	    --admin-keys-file=./admins.json
package main
