package key

import (
	"testing"

	"github.com/google/uuid"
)

func TestStringAndParseRoundTrip(t *testing.T) {
	keys := []Key{
		Int32(42),
		Int64(1 << 40),
		String("users:admin"),
		UUID(uuid.MustParse("9f9d5b3a-5f4a-4f7a-9a9e-2b1c09c3e1aa")),
	}
	for _, k := range keys {
		parsed, ok := Parse(k.String())
		if !ok {
			t.Fatalf("Parse(%q) failed", k.String())
		}
		if parsed != k {
			t.Fatalf("round trip mismatch: got %v want %v", parsed, k)
		}
	}
}

func TestParseLegacyTags(t *testing.T) {
	cases := map[string]Key{
		"Int(7)":      Int32(7),
		"BigInt(900)": Int64(900),
		"Uuid(9f9d5b3a-5f4a-4f7a-9a9e-2b1c09c3e1aa)": UUID(uuid.MustParse("9f9d5b3a-5f4a-4f7a-9a9e-2b1c09c3e1aa")),
	}
	for in, want := range cases {
		got, ok := Parse(in)
		if !ok {
			t.Fatalf("Parse(%q) failed", in)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseBareForms(t *testing.T) {
	if k, ok := Parse("123"); !ok || k != Int64(123) {
		t.Fatalf("bare integer parse failed: %v %v", k, ok)
	}
	u := "9f9d5b3a-5f4a-4f7a-9a9e-2b1c09c3e1aa"
	if k, ok := Parse(u); !ok || k.Kind() != KindUUID {
		t.Fatalf("bare uuid parse failed: %v %v", k, ok)
	}
	if _, ok := Parse("Bogus(1)"); ok {
		t.Fatal("expected unknown tag to fail")
	}
	if _, ok := Parse("not-a-key"); ok {
		t.Fatal("expected junk to fail")
	}
}

func TestFromValue(t *testing.T) {
	if k, ok := FromValue(int64(9)); !ok || k != Int64(9) {
		t.Fatalf("int64: %v %v", k, ok)
	}
	if k, ok := FromValue(int32(9)); !ok || k != Int32(9) {
		t.Fatalf("int32: %v %v", k, ok)
	}
	if k, ok := FromValue([]byte("77")); !ok || k != Int64(77) {
		t.Fatalf("numeric bytes: %v %v", k, ok)
	}
	if k, ok := FromValue([]byte("hello")); !ok || k != String("hello") {
		t.Fatalf("string bytes: %v %v", k, ok)
	}
	u := uuid.MustParse("9f9d5b3a-5f4a-4f7a-9a9e-2b1c09c3e1aa")
	if k, ok := FromValue(u); !ok || k != UUID(u) {
		t.Fatalf("uuid value: %v %v", k, ok)
	}
	// Text that parses as a UUID is still a string key: kind follows the Go
	// type, so equality against a String key of the same text holds.
	if k, ok := FromValue(u.String()); !ok || k != String(u.String()) {
		t.Fatalf("uuid-shaped string: %v %v", k, ok)
	}
	if k, _ := FromValue(u.String()); !k.Equal(String(u.String())) {
		t.Fatal("uuid-shaped string must equal the plain string key")
	}
	if _, ok := FromValue(nil); ok {
		t.Fatal("nil must not convert")
	}
	if _, ok := FromValue(3.14); ok {
		t.Fatal("float must not convert")
	}
}

func TestEqualAcrossWidths(t *testing.T) {
	if !Int32(5).Equal(Int64(5)) {
		t.Fatal("expected Int32(5) == Int64(5)")
	}
	if Int32(5).Equal(String("5")) {
		t.Fatal("int and string keys must differ")
	}
}

func TestZeroKeyIsInvalid(t *testing.T) {
	var k Key
	if k.IsValid() {
		t.Fatal("zero key must be invalid")
	}
	if k.Value() != nil {
		t.Fatal("invalid key must have nil value")
	}
}
