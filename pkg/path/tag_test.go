package path

import (
	"bytes"
	"testing"
)

func TestEncodeTagPath_SimpleName(t *testing.T) {
	p, err := EncodeTagPath([]Segment{{Name: "Counts"}})
	if err != nil {
		t.Fatalf("EncodeTagPath() error = %v", err)
	}
	want := []byte{0x91, 0x06, 'C', 'o', 'u', 'n', 't', 's'}
	if !bytes.Equal(p.Bytes(), want) {
		t.Errorf("EncodeTagPath() = %X, want %X", p.Bytes(), want)
	}
}

func TestEncodeTagPath_MemberAndIndex(t *testing.T) {
	p, err := EncodeTagPath([]Segment{
		{Name: "Array", Indices: []int{3}},
		{Name: "Member"},
	})
	if err != nil {
		t.Fatalf("EncodeTagPath() error = %v", err)
	}
	want := []byte{
		0x91, 0x05, 'A', 'r', 'r', 'a', 'y', 0x00, // symbolic "Array"
		0x28, 0x03, // member segment, index 3
		0x91, 0x06, 'M', 'e', 'm', 'b', 'e', 'r', // symbolic "Member"
	}
	if !bytes.Equal(p.Bytes(), want) {
		t.Errorf("EncodeTagPath() = %X, want %X", p.Bytes(), want)
	}
}
