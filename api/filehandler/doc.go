// Package filehandler implements the HTTP server and client for the files
// API: multipart upload, metadata lookup, download, deletion, integrity
// verification, presigned URLs and the public validation rules.
//
// Key components:
//   - Handler: Serves the /api/v1/files routes over the storage facade and
//     a metadata record store
//   - Client: Typed Go client implementing api.FileServiceProvider
//
// Every upload flows validate-then-store: the candidate is checked before
// any storage I/O, and a metadata record is saved only after the content is
// durably stored. If the record cannot be saved, the handler deletes the
// stored object again, so a file is either fully registered or absent.
//
// Error responses use the api.ErrorEnvelope shape with machine-readable
// codes; upload rejections carry the code of the validation error that
// caused them.
package filehandler
