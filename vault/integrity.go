package vault

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/formvault/document-storage-backend/interfaces"
)

// HashBytes computes the tagged content hash of data. Identical bytes always
// produce identical tagged hashes.
func HashBytes(data []byte) interfaces.TaggedHash {
	return interfaces.NewTaggedHash(sha256.Sum256(data))
}

// HashReader computes the tagged content hash of everything readable from r,
// returning the hash and the number of bytes consumed.
func HashReader(r io.Reader) (interfaces.TaggedHash, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash content: %w", err)
	}

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return interfaces.NewTaggedHash(digest), n, nil
}
