package bencode_test

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	reference "github.com/jackpal/bencode-go"

	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/bencode"
)

func decodeAndAssert(t *testing.T, input string, expected any) {
	t.Helper()
	decoded, rest, err := bencode.Decode([]byte(input))
	if err != nil {
		t.Fatalf("failed to decode %q: %v", input, err)
	}
	if len(rest) != 0 {
		t.Errorf("decoding %q left %d unconsumed bytes", input, len(rest))
	}
	if !reflect.DeepEqual(decoded, expected) {
		t.Errorf("decoding %q: expected %v but got %v", input, expected, decoded)
	}
}

func TestDecodeString(t *testing.T) {
	decodeAndAssert(t, "5:hello", "hello")
	decodeAndAssert(t, "10:hello12345", "hello12345")
	decodeAndAssert(t, "0:", "")
}

func TestDecodeInteger(t *testing.T) {
	decodeAndAssert(t, "i123e", int64(123))
	decodeAndAssert(t, "i-123e", int64(-123))
	decodeAndAssert(t, "i0e", int64(0))
}

func TestDecodeList(t *testing.T) {
	decodeAndAssert(t, "li1ei2ei3ee", []any{int64(1), int64(2), int64(3)})
	decodeAndAssert(t, "le", []any{})
	decodeAndAssert(t, "lli1eel9:test testeleee", []any{[]any{int64(1)}, []any{"test test"}, []any{}})
}

func TestDecodeDictionary(t *testing.T) {
	decodeAndAssert(t, "d3:foo3:bare", map[string]any{"foo": "bar"})
	decodeAndAssert(t, "d4:dictd9:space keyi4eee", map[string]any{
		"dict": map[string]any{"space key": int64(4)},
	})
	decodeAndAssert(t, "de", map[string]any{})
}

func TestDecodeTracksRemainder(t *testing.T) {
	first, rest, err := bencode.Decode([]byte("i5e3:abc"))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if first != int64(5) {
		t.Errorf("expected 5, got %v", first)
	}
	if string(rest) != "3:abc" {
		t.Fatalf("expected remainder %q, got %q", "3:abc", rest)
	}

	second, rest, err := bencode.Decode(rest)
	if err != nil {
		t.Fatalf("unexpected decode error on remainder: %v", err)
	}
	if second != "abc" || len(rest) != 0 {
		t.Errorf("expected (%q, empty remainder), got (%v, %q)", "abc", second, rest)
	}
}

func TestDecodeMalformed(t *testing.T) {
	inputs := []string{
		"",         // no value at all
		"x3:abc",   // unknown tag byte
		"5:ab",     // declared length exceeds available bytes
		"3x:ab",    // length digits do not parse
		"i-e",      // integer with no digits
		"ie",       // empty integer
		"i12",      // unterminated integer
		"li1e",     // unterminated list
		"d3:foo",   // dictionary missing value and terminator
		"di1ei2ee", // non-string dictionary key
	}
	for _, input := range inputs {
		if _, _, err := bencode.Decode([]byte(input)); !errors.Is(err, bencode.ErrMalformed) {
			t.Errorf("decoding %q: expected ErrMalformed, got %v", input, err)
		}
	}
}

func encodeAndAssert(t *testing.T, expected string, input any) {
	t.Helper()
	encoded, err := bencode.Encode(input)
	if err != nil {
		t.Fatalf("failed to encode %v: %v", input, err)
	}
	if string(encoded) != expected {
		t.Errorf("encoding %v: expected %q but got %q", input, expected, encoded)
	}
}

func TestEncodeInteger(t *testing.T) {
	encodeAndAssert(t, "i123e", int64(123))
	encodeAndAssert(t, "i-123e", int64(-123))
	encodeAndAssert(t, "i0e", 0)
}

func TestEncodeString(t *testing.T) {
	encodeAndAssert(t, "5:hello", "hello")
	encodeAndAssert(t, "0:", "")
}

func TestEncodeList(t *testing.T) {
	encodeAndAssert(t, "li1ei2ei3ee", []any{int64(1), int64(2), int64(3)})
	encodeAndAssert(t, "le", []any{})
}

func TestEncodeDictionarySortsKeys(t *testing.T) {
	encodeAndAssert(t, "d1:a4:last2:mm5:first2:zz3:aaae", map[string]any{
		"zz": "aaa",
		"a":  "last",
		"mm": "first",
	})
	// "piece length" sorts before "pieces": ' ' < 's' in byte order.
	encodeAndAssert(t, "d12:piece lengthi1e6:pieces2:xye", map[string]any{
		"pieces":       "xy",
		"piece length": int64(1),
	})
}

func TestEncodeUnsupportedType(t *testing.T) {
	if _, err := bencode.Encode(3.14); err == nil {
		t.Error("expected error for unsupported type, got nil")
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"d3:bar4:spam3:fooi42ee",
		"l4:spami-7ee",
		"5:hello",
		"i0e",
		"d4:infod6:lengthi16384e4:name4:workee",
		"de",
	}
	for _, input := range inputs {
		decoded, _, err := bencode.Decode([]byte(input))
		if err != nil {
			t.Fatalf("failed to decode %q: %v", input, err)
		}
		encoded, err := bencode.Encode(decoded)
		if err != nil {
			t.Fatalf("failed to re-encode %q: %v", input, err)
		}
		if string(encoded) != input {
			t.Errorf("round trip of %q produced %q", input, encoded)
		}
	}
}

// The codec must agree with jackpal/bencode-go on every well-formed value:
// same decoded shapes, and identical canonical bytes after a round trip.
func TestAgreesWithReferenceCodec(t *testing.T) {
	inputs := []string{
		"5:hello",
		"i-52e",
		"li1ei2ei3ee",
		"d3:bar4:spam3:fooi42ee",
		"d4:dictd9:space keyi4ee4:listli1e2:abee",
	}
	for _, input := range inputs {
		ours, _, err := bencode.Decode([]byte(input))
		if err != nil {
			t.Fatalf("failed to decode %q: %v", input, err)
		}
		theirs, err := reference.Decode(bytes.NewReader([]byte(input)))
		if err != nil {
			t.Fatalf("reference codec failed to decode %q: %v", input, err)
		}
		if !reflect.DeepEqual(ours, theirs) {
			t.Errorf("decoding %q: got %v, reference codec got %v", input, ours, theirs)
		}

		reEncoded, err := bencode.Encode(ours)
		if err != nil {
			t.Fatalf("failed to re-encode %q: %v", input, err)
		}
		var theirBuf bytes.Buffer
		if err := reference.Marshal(&theirBuf, theirs); err != nil {
			t.Fatalf("reference codec failed to re-encode %q: %v", input, err)
		}
		if string(reEncoded) != input || theirBuf.String() != input {
			t.Errorf("canonical re-encoding of %q: got %q, reference codec got %q", input, reEncoded, theirBuf.String())
		}
	}
}
