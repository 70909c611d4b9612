package canonical

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// Normalize returns a canonical copy of a decoded JSON-ish value:
//   - map entries whose value is nil are dropped (null and absent-key are
//     equivalent once stored)
//   - all numeric types collapse to float64
//   - time.Time values are converted to UTC
//   - slices are normalized element-wise
//
// The input is never mutated.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			n := Normalize(val)
			if n == nil {
				continue
			}
			out[k] = n
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.UTC()
	default:
		return v
	}
}

// Equal reports whether two values are structurally equal after
// normalization. Objects are compared by key set and per-key value, arrays
// element-wise and order-sensitively, and timestamp-like values by their
// underlying instant (a time.Time equals an RFC 3339 string naming the same
// moment).
func Equal(a, b any) bool {
	return equalNorm(Normalize(a), Normalize(b))
}

func equalNorm(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		return instantEqual(ta, b)
	}
	if tb, ok := b.(time.Time); ok {
		return instantEqual(tb, a)
	}

	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, av := range va {
			bv, present := vb[k]
			if !present || !equalNorm(av, bv) {
				return false
			}
		}
		return true
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !equalNorm(va[i], vb[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func instantEqual(t time.Time, other any) bool {
	switch o := other.(type) {
	case time.Time:
		return t.Equal(o)
	case string:
		parsed, err := time.Parse(time.RFC3339, o)
		if err != nil {
			return false
		}
		return t.Equal(parsed)
	default:
		return false
	}
}

// Hash returns a stable hex digest of the normalized value. Map keys are
// serialized in sorted order, so two Equal values always hash identically.
func Hash(v any) string {
	h := sha1.New()
	writeCanonical(h, Normalize(v))
	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

func writeCanonical(w hashWriter, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		w.Write([]byte{'{'})
		for _, k := range keys {
			w.Write([]byte(k))
			w.Write([]byte{':'})
			writeCanonical(w, t[k])
			w.Write([]byte{','})
		}
		w.Write([]byte{'}'})
	case []any:
		w.Write([]byte{'['})
		for _, el := range t {
			writeCanonical(w, el)
			w.Write([]byte{','})
		}
		w.Write([]byte{']'})
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			w.Write([]byte("?"))
			return
		}
		w.Write(raw)
	}
}
