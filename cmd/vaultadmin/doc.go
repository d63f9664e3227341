// Package main (cmd/vaultadmin) implements the diagnostics CLI for the document vault.
//
// The tool works offline against local files and stored names; it never talks
// to the server. It is meant for operators auditing a storage directory or
// bucket listing.
//
// Commands:
//
//	reveal-name - Decrypt an opaque stored name back to the original filename
//	verify      - Recompute a local file's tagged hash and compare it
//	hash        - Print the tagged hash of a local file
//	rules       - Print the validation rules the given limits produce
//
// reveal-name needs the same naming secret the server runs with (flag or
// FILE_NAMING_SECRET). Names produced under a different secret, or not
// produced by the service at all, print as "unknown" with a zero exit code,
// so piping a whole bucket listing through the command is safe.
//
// Example:
//
//	vaultadmin reveal-name --naming-secret=... --name=Kx3v...pdf
//	vaultadmin verify --file=./uploads/Kx3v...pdf --hash=sha256:ab12...
package main
