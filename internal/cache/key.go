package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// HashKey builds a deterministic key from a prefix and a parameter set.
// Empty values are skipped. The pairs are query-encoded, which sorts them
// by key and escapes separators inside values, so distinct parameter sets
// never share a key.
func HashKey(prefix string, params map[string]string) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		values.Set(k, v)
	}

	sum := sha256.Sum256([]byte(values.Encode()))
	return prefix + hex.EncodeToString(sum[:])
}
