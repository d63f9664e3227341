// Package main (cmd/admin) implements the admin client for the document storage service.
//
// The admin client provides command-line tools for managing the service's
// runtime storage configuration. It enables key generation, admin registration,
// and live switching between the local filesystem and S3-compatible backends.
//
// Commands:
//
//	get-config             - Fetch the active storage configuration (credentials redacted)
//	set-config             - Replace the active storage configuration at runtime
//	generate-admin         - Generate new administrator key pair for authentication
//	generate-admins-config - Create admins.json configuration with admin public keys
//
// Each administrator must be registered with the server by including their public
// key in the admins.json configuration (passed to the server via --admin-keys-file).
// Administrators authenticate using ECDSA signatures created with their private
// keys over the request path and body.
//
// Example workflow:
//
//  1. Generate admin keypair for each administrator:
//     admin generate-admin --admin-privkey-file=admin1-private.pem --admin-pubkey-file=admin1-public.pem
//
//  2. Create admin configuration file and start the server with it:
//     admin generate-admins-config --admin-pubkey-files=admin1-public.pem,admin2-public.pem
//
//  3. Inspect the active configuration:
//     admin get-config --server-addr=http://127.0.0.1:8080
//
//  4. Switch the server to a remote backend:
//     admin set-config --kind=remote --endpoint=https://s3.example.com --bucket=documents --region=us-east-1 --access-key=... --secret-key=...
//
// The security model ensures that:
//   - Admin identity is the hex SHA-256 of the public key PEM
//   - Requests are signed, so credentials never ride along unauthenticated
//   - Stored credentials are never echoed back; responses report presence only
//   - Configuration changes apply on the server's next request, no restart needed
package main
