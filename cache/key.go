package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Key derives a deterministic cache key from a namespace and an arbitrary
// input. Format: <namespace>:<hash>, where hash is the first 16 hex
// characters of SHA-256 over a canonical JSON rendering of the input (map
// keys sorted, so logically equal inputs always hash alike).
//
// Intended as the key-derivation function handed to Memoize.
func Key(namespace string, input any) string {
	canonical, err := canonicalize(input)
	if err != nil {
		// Fall back to the Go representation; still deterministic for the
		// types that reach this path.
		canonical = []byte(fmt.Sprintf("%#v", input))
	}

	hash := sha256.Sum256(canonical)
	return namespace + ":" + hex.EncodeToString(hash[:8])
}

// canonicalize produces a deterministic JSON representation of v.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		// encoding/json already sorts struct fields by declaration order
		// and map keys lexically.
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []byte("{")
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}

		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		out = append(out, kb...)
		out = append(out, ':')

		vb, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, vb...)
	}
	return append(out, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	out := []byte("[")
	for i, v := range s {
		if i > 0 {
			out = append(out, ',')
		}
		vb, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		out = append(out, vb...)
	}
	return append(out, ']'), nil
}
