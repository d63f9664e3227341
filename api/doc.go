// Package api defines the wire contract of the document storage service:
// request and response types shared by handlers and clients, the error
// envelope, and the error codes the HTTP layer produces.
//
// # Error Envelope
//
// Every error response is a single JSON object under the "error" key with
// the failure message, a stable machine-readable code, a UTC timestamp and
// the request path. Validation failures reuse the code of the validation
// error that caused them (SIZE_EXCEEDED, TYPE_NOT_ALLOWED, MALWARE_DETECTED,
// SIGNATURE_MISMATCH); the codes in this package cover everything the
// handlers produce themselves.
//
// # Subpackages
//
// The filehandler subpackage serves the files API over the storage facade
// and a metadata store, and provides a typed Go client for it.
package api
