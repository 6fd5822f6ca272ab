package payload

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// Marshal returns the canonical serialization of o: compact JSON, keys in
// insertion order, every rune above ASCII written as a \u escape. The
// output is pure ASCII and never contains a NUL byte.
//
// Non-finite floats and values that cannot be represented are written as
// null.
func Marshal(o Object) []byte {
	return appendObject(make([]byte, 0, 64), o)
}

func appendObject(dst []byte, o Object) []byte {
	dst = append(dst, '{')
	for i, f := range o {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendString(dst, f.Key)
		dst = append(dst, ':')
		dst = appendValue(dst, f.Value)
	}
	return append(dst, '}')
}

func appendValue(dst []byte, v any) []byte {
	switch t := v.(type) {
	case nil:
		return append(dst, "null"...)
	case bool:
		return strconv.AppendBool(dst, t)
	case string:
		return appendString(dst, t)
	case int:
		return strconv.AppendInt(dst, int64(t), 10)
	case int32:
		return strconv.AppendInt(dst, int64(t), 10)
	case int64:
		return strconv.AppendInt(dst, t, 10)
	case uint32:
		return strconv.AppendUint(dst, uint64(t), 10)
	case uint64:
		return strconv.AppendUint(dst, t, 10)
	case float32:
		return appendFloat(dst, float64(t))
	case float64:
		return appendFloat(dst, t)
	case json.Number:
		// re-encode so a malformed Number cannot leak into the output
		if n, err := ParseValue([]byte(t)); err == nil {
			switch n.(type) {
			case int64, float64:
				return appendValue(dst, n)
			}
		}
		return append(dst, "null"...)
	case Object:
		return appendObject(dst, t)
	case []any:
		dst = append(dst, '[')
		for i, e := range t {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendValue(dst, e)
		}
		return append(dst, ']')
	case map[string]any:
		// plain maps carry no order; sort for determinism
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(Object, 0, len(keys))
		for _, k := range keys {
			obj = append(obj, Field{Key: k, Value: t[k]})
		}
		return appendObject(dst, obj)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return append(dst, "null"...)
	}
	generic, err := ParseValue(b)
	if err != nil {
		return append(dst, "null"...)
	}
	return appendValue(dst, generic)
}

// appendFloat keeps a decimal point on integral values so a float stays a
// float after a round trip.
func appendFloat(dst []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(dst, "null"...)
	}
	b, _ := json.Marshal(f)
	dst = append(dst, b...)
	for _, c := range b {
		if c == '.' || c == 'e' || c == 'E' {
			return dst
		}
	}
	return append(dst, '.', '0')
}

func appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, r := range s {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		default:
			switch {
			case r < 0x20:
				dst = appendEscape(dst, r)
			case r < utf8.RuneSelf:
				dst = append(dst, byte(r))
			case r > 0xFFFF:
				r1, r2 := utf16.EncodeRune(r)
				dst = appendEscape(appendEscape(dst, r1), r2)
			default:
				// invalid UTF-8 arrives here as utf8.RuneError
				dst = appendEscape(dst, r)
			}
		}
	}
	return append(dst, '"')
}

func appendEscape(dst []byte, r rune) []byte {
	return append(dst, '\\', 'u',
		hexDigits[r>>12&0xF], hexDigits[r>>8&0xF], hexDigits[r>>4&0xF], hexDigits[r&0xF])
}
