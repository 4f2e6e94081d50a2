package encoding

import (
	"bytes"
	"testing"
)

func TestUTF8ToFixedString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		size int
		want string
	}{
		{"fits", "Root.mesh", 16, "Root.mesh"},
		{"exact size keeps terminator", "abcd", 4, "bcd"},
		{"long name keeps tail", "RootNode.body.mesh_01", 8, "mesh_01"},
		{"empty", "", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := UTF8ToFixedString(tt.in, tt.size)
			if len(field) != tt.size {
				t.Fatalf("field size = %d, want %d", len(field), tt.size)
			}
			if field[tt.size-1] != 0 {
				t.Errorf("field should be null terminated: %v", field)
			}
			if got := FixedStringToUTF8(field); got != tt.want {
				t.Errorf("round trip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLatinRoundTrip(t *testing.T) {
	in := "café_bone"
	encoded := UTF8ToLatin(in)
	if len(encoded) != len("cafe_bone") {
		t.Errorf("expected one byte per rune, got %d bytes", len(encoded))
	}
	if got := LatinToUTF8(encoded); got != in {
		t.Errorf("LatinToUTF8() = %q, want %q", got, in)
	}
}

func TestUnmappableRune(t *testing.T) {
	encoded := UTF8ToLatin("bone_骨")
	if !bytes.Equal(encoded, []byte("bone_?")) {
		t.Errorf("UTF8ToLatin() = %q, want %q", encoded, "bone_?")
	}
}

func TestTrimNullBytes(t *testing.T) {
	got := TrimNullBytes([]byte{'a', 'b', 0, 0})
	if !bytes.Equal(got, []byte("ab")) {
		t.Errorf("TrimNullBytes() = %q, want %q", got, "ab")
	}
}

func TestTruncateName(t *testing.T) {
	tests := []struct {
		in   string
		size int
		want string
	}{
		{"body", 64, "body"},
		{"abcd", 4, "bcd"},
		{"Root.body.mesh", 6, ".mesh"},
		{"é.mesh", 7, ".mesh"},
		{"", 4, ""},
	}

	for _, tt := range tests {
		if got := TruncateName(tt.in, tt.size); got != tt.want {
			t.Errorf("TruncateName(%q, %d) = %q, want %q", tt.in, tt.size, got, tt.want)
		}
	}
}
