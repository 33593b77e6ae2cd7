// Package cache stores validated semantic judgments so repeated analyses
// of the same clause do not call the provider again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyVersion changes whenever the cached payload or prompt changes shape
const keyVersion = "clauserisk:judgment:v1:"

// CacheKey derives the key of one clause judgment. Provider and model are
// part of the key: judgments from different backends never mix.
func CacheKey(provider, model, lang, clauseText string) string {
	h := sha256.New()
	for _, part := range []string{provider, model, lang, clauseText} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return keyVersion + hex.EncodeToString(h.Sum(nil))
}
