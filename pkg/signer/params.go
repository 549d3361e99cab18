package signer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Params is the request parameter set of one API call, keyed by wire name.
// Ordering is applied at canonicalization time, so insertion order is irrelevant.
type Params map[string]any

// Set stores value under name and returns p for chaining.
func (p Params) Set(name string, value any) Params {
	p[name] = value
	return p
}

// SetIf stores value only when ok is true. It is the builder form of
// "include the field only if the caller provided it".
func (p Params) SetIf(ok bool, name string, value any) Params {
	if ok {
		p[name] = value
	}
	return p
}

// Clone returns a shallow copy of p. A nil receiver yields an empty set.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Render converts a parameter value to its wire text. The boolean result is
// false for empty values (nil, "", false, numeric zero, empty lists), which
// are omitted from both the canonical string and cache keys. Lists render in
// bracket form without whitespace, e.g. [1,2,3].
func Render(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	case int:
		return strconv.Itoa(val), val != 0
	case int8:
		return strconv.FormatInt(int64(val), 10), val != 0
	case int16:
		return strconv.FormatInt(int64(val), 10), val != 0
	case int32:
		return strconv.FormatInt(int64(val), 10), val != 0
	case int64:
		return strconv.FormatInt(val, 10), val != 0
	case uint:
		return strconv.FormatUint(uint64(val), 10), val != 0
	case uint8:
		return strconv.FormatUint(uint64(val), 10), val != 0
	case uint16:
		return strconv.FormatUint(uint64(val), 10), val != 0
	case uint32:
		return strconv.FormatUint(uint64(val), 10), val != 0
	case uint64:
		return strconv.FormatUint(val, 10), val != 0
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), val != 0
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), val != 0
	case decimal.Decimal:
		return val.String(), !val.IsZero()
	case *decimal.Decimal:
		if val == nil {
			return "", false
		}
		return val.String(), !val.IsZero()
	case []string:
		return renderList(len(val), func(i int) string { return val[i] })
	case []int:
		return renderList(len(val), func(i int) string { return strconv.Itoa(val[i]) })
	case []int64:
		return renderList(len(val), func(i int) string { return strconv.FormatInt(val[i], 10) })
	case []float64:
		return renderList(len(val), func(i int) string { return strconv.FormatFloat(val[i], 'f', -1, 64) })
	case []any:
		return renderList(len(val), func(i int) string {
			s, _ := Render(val[i])
			return s
		})
	case fmt.Stringer:
		s := val.String()
		return s, s != ""
	default:
		s := fmt.Sprint(val)
		return s, s != ""
	}
}

func renderList(n int, item func(i int) string) (string, bool) {
	if n == 0 {
		return "", false
	}

	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = item(i)
	}
	return "[" + stripSpace(strings.Join(parts, ",")) + "]", true
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
