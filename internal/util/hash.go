package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// CacheKey creates a stable hash identifying an embedding result.
// The model id and revision are part of the key so that embeddings produced
// by different model snapshots never collide in the cache.
func CacheKey(modelID, revision, text string) string {
	hasher := sha256.New()
	hasher.Write([]byte(modelID))
	hasher.Write([]byte{0})
	hasher.Write([]byte(revision))
	hasher.Write([]byte{0})
	hasher.Write([]byte(text))
	return hex.EncodeToString(hasher.Sum(nil))
}
