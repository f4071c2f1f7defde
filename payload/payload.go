// Package payload normalizes arbitrarily shaped remote responses into a
// small value tree and extracts image URLs and request identifiers from it.
//
// Responses arrive either as raw JSON or as wrapper objects that expose the
// real payload behind a zero-argument accessor method. A single
// normalization step at the boundary converts both into a [Value]; traversal
// after that point is ordinary recursion with no further type introspection.
package payload

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind discriminates the value tree variants.
type Kind int

const (
	// KindScalar is a leaf: string, number, bool, or null.
	KindScalar Kind = iota
	// KindObject is a mapping with member order preserved.
	KindObject
	// KindArray is a sequence.
	KindArray
)

// Value is the normalized form of a remote response.
type Value struct {
	Kind Kind

	// Str holds the scalar string value when IsString is set.
	Str      string
	IsString bool

	// Keys holds object member names in document order, parallel to
	// Children. Arrays use Children only.
	Keys     []string
	Children []Value
}

// FromJSON normalizes raw JSON bytes. Object members keep their document
// order, so extraction output is deterministic for identical input.
func FromJSON(data []byte) Value {
	return fromResult(gjson.ParseBytes(data))
}

func fromResult(res gjson.Result) Value {
	switch {
	case res.IsObject():
		value := Value{Kind: KindObject}
		res.ForEach(func(key, child gjson.Result) bool {
			value.Keys = append(value.Keys, key.String())
			value.Children = append(value.Children, fromResult(child))
			return true
		})
		return value
	case res.IsArray():
		value := Value{Kind: KindArray}
		res.ForEach(func(_, child gjson.Result) bool {
			value.Children = append(value.Children, fromResult(child))
			return true
		})
		return value
	case res.Type == gjson.String:
		return Value{Kind: KindScalar, Str: res.String(), IsString: true}
	default:
		return Value{Kind: KindScalar}
	}
}

// Accessor interfaces a wrapper response may implement. Unwrapping is
// attempted repeatedly until a mapping is reached or no accessor applies.
type (
	jsonCarrier   interface{ JSON() []byte }
	resultCarrier interface{ Result() any }
	valueCarrier  interface{ Value() any }
	getCarrier    interface{ Get() any }
)

// Unwrap peels wrapper objects off v by calling their accessor methods.
func Unwrap(v any) any {
	for i := 0; i < 8; i++ {
		switch v.(type) {
		case map[string]any, []any, json.RawMessage, string, nil:
			return v
		}
		switch carrier := v.(type) {
		case jsonCarrier:
			return json.RawMessage(carrier.JSON())
		case resultCarrier:
			v = carrier.Result()
		case valueCarrier:
			v = carrier.Value()
		case getCarrier:
			v = carrier.Get()
		default:
			return v
		}
	}
	return v
}

// FromAny normalizes an already-decoded value, unwrapping accessor-bearing
// wrappers first. Map members are visited in sorted key order because the
// decoded form no longer carries document order; prefer FromJSON when raw
// bytes are available.
func FromAny(v any) Value {
	switch value := Unwrap(v).(type) {
	case nil:
		return Value{Kind: KindScalar}
	case json.RawMessage:
		return FromJSON(value)
	case []byte:
		return FromJSON(value)
	case string:
		return Value{Kind: KindScalar, Str: value, IsString: true}
	case map[string]any:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := Value{Kind: KindObject, Keys: keys}
		for _, key := range keys {
			out.Children = append(out.Children, FromAny(value[key]))
		}
		return out
	case []any:
		out := Value{Kind: KindArray}
		for _, child := range value {
			out.Children = append(out.Children, FromAny(child))
		}
		return out
	case bool, float64, int, int64, float32:
		return Value{Kind: KindScalar}
	default:
		return Value{Kind: KindScalar, Str: fmt.Sprint(value), IsString: true}
	}
}

// URLs walks the value depth-first and collects every string leaf with an
// HTTP(S) scheme prefix, de-duplicated, in first-seen document order.
func URLs(v Value) []string {
	var collected []string
	seen := make(map[string]struct{})

	stack := []Value{v}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch current.Kind {
		case KindObject, KindArray:
			for i := len(current.Children) - 1; i >= 0; i-- {
				stack = append(stack, current.Children[i])
			}
		case KindScalar:
			if !current.IsString {
				continue
			}
			if !strings.HasPrefix(strings.ToLower(current.Str), "http") {
				continue
			}
			if _, dup := seen[current.Str]; dup {
				continue
			}
			seen[current.Str] = struct{}{}
			collected = append(collected, current.Str)
		}
	}
	return collected
}

// DefaultTokenKeys are the identifier-like member names Token searches for.
// The set is configuration, not contract; callers may pass their own.
var DefaultTokenKeys = []string{"request_id", "requestId", "id"}

// Token returns the first usable value found under any of the given keys.
// For each key only the first occurrence in document order counts: when it
// holds a non-string, the key is exhausted and the next key name is tried.
func Token(v Value, keys []string) (string, bool) {
	for _, key := range keys {
		match, found := firstMatch(v, key)
		if !found {
			continue
		}
		if match.Kind == KindScalar && match.IsString {
			return match.Str, true
		}
	}
	return "", false
}

func firstMatch(v Value, key string) (Value, bool) {
	switch v.Kind {
	case KindObject:
		for i, name := range v.Keys {
			if name == key {
				return v.Children[i], true
			}
			if match, found := firstMatch(v.Children[i], key); found {
				return match, found
			}
		}
	case KindArray:
		for _, child := range v.Children {
			if match, found := firstMatch(child, key); found {
				return match, found
			}
		}
	}
	return Value{}, false
}
