// Package key provides a tagged union over the primary/foreign key types the
// mapper supports (int32, int64, string, UUID). Keys round-trip losslessly
// through a canonical textual form and convert to and from database scalar
// values. The zero Key is invalid; constructors are the only way to obtain a
// valid one.
package key

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Kind discriminates the variants of Key.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt32
	KindInt64
	KindString
	KindUUID
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindString:
		return "String"
	case KindUUID:
		return "UUID"
	default:
		return "Invalid"
	}
}

// Key is an immutable key value. It is comparable and hashable, so it can be
// used directly as a map or set element when collecting target IDs.
type Key struct {
	kind Kind
	num  int64
	str  string
	uid  uuid.UUID
}

// Int32 builds an int32 key.
func Int32(v int32) Key { return Key{kind: KindInt32, num: int64(v)} }

// Int64 builds an int64 key.
func Int64(v int64) Key { return Key{kind: KindInt64, num: v} }

// String builds a string key.
func String(v string) Key { return Key{kind: KindString, str: v} }

// UUID builds a UUID key.
func UUID(v uuid.UUID) Key { return Key{kind: KindUUID, uid: v} }

// Kind returns the variant of the key.
func (k Key) Kind() Kind { return k.kind }

// IsValid reports whether the key holds a value.
func (k Key) IsValid() bool { return k.kind != KindInvalid }

// Value returns the database scalar representation of the key, suitable for
// use as a statement argument.
func (k Key) Value() any {
	switch k.kind {
	case KindInt32:
		return int32(k.num)
	case KindInt64:
		return k.num
	case KindString:
		return k.str
	case KindUUID:
		return k.uid.String()
	default:
		return nil
	}
}

// Int64Value returns the numeric value of an integer key.
func (k Key) Int64Value() (int64, bool) {
	if k.kind == KindInt32 || k.kind == KindInt64 {
		return k.num, true
	}
	return 0, false
}

// String returns the canonical textual form, e.g. "Int32(1)" or
// "UUID(9f9d…)". The form round-trips through Parse.
func (k Key) String() string {
	switch k.kind {
	case KindInt32, KindInt64:
		return fmt.Sprintf("%s(%d)", k.kind, k.num)
	case KindString:
		return fmt.Sprintf("String(%s)", k.str)
	case KindUUID:
		return fmt.Sprintf("UUID(%s)", k.uid)
	default:
		return "Invalid"
	}
}

// Parse decodes the canonical textual form produced by String. It also
// accepts a bare integer or UUID for convenience. Failure yields ok=false,
// never a panic.
func Parse(s string) (Key, bool) {
	if open := strings.IndexByte(s, '('); open > 0 && strings.HasSuffix(s, ")") {
		tag, body := s[:open], s[open+1:len(s)-1]
		switch tag {
		case "Int32", "Int":
			n, err := strconv.ParseInt(body, 10, 32)
			if err != nil {
				return Key{}, false
			}
			return Int32(int32(n)), true
		case "Int64", "BigInt":
			n, err := strconv.ParseInt(body, 10, 64)
			if err != nil {
				return Key{}, false
			}
			return Int64(n), true
		case "String":
			return String(body), true
		case "UUID", "Uuid":
			u, err := uuid.Parse(body)
			if err != nil {
				return Key{}, false
			}
			return UUID(u), true
		default:
			return Key{}, false
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int64(n), true
	}
	if u, err := uuid.Parse(s); err == nil {
		return UUID(u), true
	}
	return Key{}, false
}

// FromValue converts a database scalar into a Key. Drivers hand back a small
// set of Go types; the kind follows the Go type, never the text content, so
// a string-typed key that happens to look like a UUID keeps KindString. Only
// uuid.UUID values produce UUID keys. []byte is the MySQL text protocol's
// shape for both numbers and strings, so all-digit bytes become integer
// keys. Unsupported types yield ok=false.
func FromValue(v any) (Key, bool) {
	switch val := v.(type) {
	case int:
		return Int64(int64(val)), true
	case int32:
		return Int32(val), true
	case int64:
		return Int64(val), true
	case uint32:
		return Int64(int64(val)), true
	case uint64:
		return Int64(int64(val)), true
	case string:
		return String(val), true
	case []byte:
		s := string(val)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int64(n), true
		}
		return String(s), true
	case uuid.UUID:
		return UUID(val), true
	case Key:
		return val, val.IsValid()
	case nil:
		return Key{}, false
	default:
		return Key{}, false
	}
}

// Equal reports value equality between two keys. Integer keys compare by
// numeric value regardless of width.
func (k Key) Equal(other Key) bool {
	ki, kok := k.Int64Value()
	oi, ook := other.Int64Value()
	if kok && ook {
		return ki == oi
	}
	return k == other
}
