package bencode

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrMalformed reports input that is not well-formed bencode.
var ErrMalformed = errors.New("malformed bencode")

// Decode parses the first bencoded value in data and returns it together
// with the unconsumed remainder of data. List and dictionary decoding use
// the remainder to advance through their elements; top-level callers decide
// whether trailing bytes are acceptable.
//
// Decoded values are string, int64, []any or map[string]any.
func Decode(data []byte) (any, []byte, error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	}
	switch b := data[0]; {
	case b == 'i':
		return decodeInteger(data)
	case b == 'l':
		return decodeList(data)
	case b == 'd':
		return decodeDictionary(data)
	case b >= '0' && b <= '9':
		return decodeString(data)
	default:
		return nil, nil, fmt.Errorf("%w: unexpected byte %q", ErrMalformed, b)
	}
}

// <decimal length>:<raw bytes>
func decodeString(data []byte) (any, []byte, error) {
	colon := bytes.IndexByte(data, ':')
	if colon < 0 {
		return nil, nil, fmt.Errorf("%w: string length without ':' separator", ErrMalformed)
	}
	length, err := strconv.Atoi(string(data[:colon]))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad string length %q", ErrMalformed, data[:colon])
	}
	payload := data[colon+1:]
	if length > len(payload) {
		return nil, nil, fmt.Errorf("%w: string length %d exceeds %d remaining bytes", ErrMalformed, length, len(payload))
	}
	return string(payload[:length]), payload[length:], nil
}

// i<decimal, optional leading '-'>e
func decodeInteger(data []byte) (any, []byte, error) {
	end := bytes.IndexByte(data, 'e')
	if end < 0 {
		return nil, nil, fmt.Errorf("%w: unterminated integer", ErrMalformed)
	}
	n, err := strconv.ParseInt(string(data[1:end]), 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad integer %q", ErrMalformed, data[1:end])
	}
	return n, data[end+1:], nil
}

// l<values>e
func decodeList(data []byte) (any, []byte, error) {
	rest := data[1:]
	list := []any{}
	for {
		if len(rest) == 0 {
			return nil, nil, fmt.Errorf("%w: unterminated list", ErrMalformed)
		}
		if rest[0] == 'e' {
			return list, rest[1:], nil
		}
		value, r, err := Decode(rest)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, value)
		rest = r
	}
}

// d<key-value pairs>e, keys are strings
func decodeDictionary(data []byte) (any, []byte, error) {
	rest := data[1:]
	dict := map[string]any{}
	for {
		if len(rest) == 0 {
			return nil, nil, fmt.Errorf("%w: unterminated dictionary", ErrMalformed)
		}
		if rest[0] == 'e' {
			return dict, rest[1:], nil
		}
		rawKey, r, err := Decode(rest)
		if err != nil {
			return nil, nil, err
		}
		key, ok := rawKey.(string)
		if !ok {
			return nil, nil, fmt.Errorf("%w: dictionary key is not a string", ErrMalformed)
		}
		value, r, err := Decode(r)
		if err != nil {
			return nil, nil, err
		}
		dict[key] = value
		rest = r
	}
}

// Encode serializes v into canonical bencode: dictionary keys in ascending
// byte order, integers in minimal decimal form. Canonical output is what
// makes the info-hash reproducible, so Encode accepts exactly the dynamic
// types Decode produces (plus int for convenience) and rejects everything
// else.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case string:
		buf.WriteString(strconv.Itoa(len(v)))
		buf.WriteByte(':')
		buf.WriteString(v)
	case int64:
		buf.WriteByte('i')
		buf.WriteString(strconv.FormatInt(v, 10))
		buf.WriteByte('e')
	case int:
		buf.WriteByte('i')
		buf.WriteString(strconv.Itoa(v))
		buf.WriteByte('e')
	case []any:
		buf.WriteByte('l')
		for _, item := range v {
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf.WriteByte('d')
		for _, key := range keys {
			if err := encodeValue(buf, key); err != nil {
				return err
			}
			if err := encodeValue(buf, v[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	default:
		return fmt.Errorf("cannot encode value of type %T", v)
	}
	return nil
}
