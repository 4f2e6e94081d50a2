// Package encoding provides the fixed-size 8-bit name fields used by chunked
// asset files.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Common fixed field sizes.
const (
	NodeNameSize     = 64
	MaterialNameSize = 128
	BoneNameSize     = 256
)

// UTF8ToLatin converts a UTF-8 string to Windows-1252 bytes.
// Characters without a mapping are replaced with '?'.
func UTF8ToLatin(s string) []byte {
	encoder := charmap.Windows1252.NewEncoder()
	result, _, err := transform.Bytes(encoder, []byte(s))
	if err == nil {
		return result
	}

	// Fall back to rune-by-rune so a single unmappable rune does not drop the name.
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
		} else {
			out = append(out, '?')
		}
	}
	return out
}

// LatinToUTF8 converts Windows-1252 bytes to a UTF-8 string.
func LatinToUTF8(data []byte) string {
	decoder := charmap.Windows1252.NewDecoder()
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// FixedStringToUTF8 converts a fixed-size null-terminated field to UTF-8.
func FixedStringToUTF8(data []byte) string {
	if nullIdx := bytes.IndexByte(data, 0); nullIdx >= 0 {
		data = data[:nullIdx]
	}
	return LatinToUTF8(data)
}

// UTF8ToFixedString encodes s into a null-terminated field of the given size.
// Names that do not fit keep their tail, since the trailing part of a full
// node path is the most specific one.
func UTF8ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	encoded := UTF8ToLatin(s)
	if len(encoded) >= size {
		encoded = encoded[len(encoded)-size+1:]
	}
	copy(result, encoded)
	return result
}

// TruncateName shortens s so it fits a null-terminated field of the given
// size, dropping leading characters.
func TruncateName(s string, size int) string {
	for len(s) >= size && len(s) > 0 {
		_, n := utf8.DecodeRuneInString(s)
		s = s[n:]
	}
	return s
}
