package kv

import (
	"errors"
	"fmt"
	"strings"
)

// Terminator closes every encoded segment. Escaping guarantees it never
// appears inside a segment, so the encoding of a key is a string prefix of
// another key's encoding only when the first key is a true ancestor.
const Terminator = '/'

// intWidth fits the largest uint64 so numeric segments sort lexically.
const intWidth = 20

var (
	ErrEmptyKey       = errors.New("kv: empty key")
	ErrInvalidSegment = errors.New("kv: invalid key segment")
	ErrMalformedKey   = errors.New("kv: malformed encoded key")
)

var (
	escaper   = strings.NewReplacer("%", "%25", string(Terminator), "%2F")
	unescaper = strings.NewReplacer("%2F", string(Terminator), "%25", "%")
)

// Key is an ordered path of string or integer segments, e.g.
// Key{"request_logs", ts, id}.
type Key []any

// String returns the encoded key, or a diagnostic form if it cannot be encoded.
func (k Key) String() string {
	s, err := Encode(k)
	if err != nil {
		return fmt.Sprintf("%v", []any(k))
	}
	return s
}

// Encode turns a key into its backend representation.
func Encode(key Key) (string, error) {
	if len(key) == 0 {
		return "", ErrEmptyKey
	}
	var b strings.Builder
	for i, seg := range key {
		if err := appendSegment(&b, seg); err != nil {
			return "", fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return b.String(), nil
}

// MustEncode is Encode for keys built from constants and known-good values.
func MustEncode(key Key) string {
	s, err := Encode(key)
	if err != nil {
		panic(err)
	}
	return s
}

// Prefix encodes the scan prefix for every key below the given segments.
func Prefix(segments ...any) (string, error) {
	return Encode(Key(segments))
}

// Decode splits an encoded key back into its (string) segments. Numeric
// segments come back in their zero-padded form.
func Decode(encoded string) (Key, error) {
	if encoded == "" || encoded[len(encoded)-1] != Terminator {
		return nil, fmt.Errorf("%w: %q", ErrMalformedKey, encoded)
	}
	parts := strings.Split(encoded[:len(encoded)-1], string(Terminator))
	key := make(Key, len(parts))
	for i, p := range parts {
		key[i] = unescaper.Replace(p)
	}
	return key, nil
}

func appendSegment(b *strings.Builder, seg any) error {
	switch v := seg.(type) {
	case string:
		b.WriteString(escaper.Replace(v))
	case int:
		if err := appendSigned(b, int64(v)); err != nil {
			return err
		}
	case int32:
		if err := appendSigned(b, int64(v)); err != nil {
			return err
		}
	case int64:
		if err := appendSigned(b, v); err != nil {
			return err
		}
	case uint:
		appendUnsigned(b, uint64(v))
	case uint32:
		appendUnsigned(b, uint64(v))
	case uint64:
		appendUnsigned(b, v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidSegment, seg)
	}
	b.WriteByte(Terminator)
	return nil
}

func appendSigned(b *strings.Builder, v int64) error {
	if v < 0 {
		return fmt.Errorf("%w: negative integer %d", ErrInvalidSegment, v)
	}
	appendUnsigned(b, uint64(v))
	return nil
}

func appendUnsigned(b *strings.Builder, v uint64) {
	fmt.Fprintf(b, "%0*d", intWidth, v)
}
