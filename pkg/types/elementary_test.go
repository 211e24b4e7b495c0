package types

import (
	"testing"

	"github.com/iceisfun/goeip/pkg/cip"
)

func TestElementary_DINT_RoundTrip(t *testing.T) {
	e := Elementary{TypeCode: cip.TypeDINT}
	out := make([]byte, e.Size())
	if err := e.EncodeAt(out, 0, -42); err != nil {
		t.Fatalf("EncodeAt() error = %v", err)
	}
	v, err := e.DecodeAt(out, 0)
	if err != nil {
		t.Fatalf("DecodeAt() error = %v", err)
	}
	if v.(int32) != -42 {
		t.Errorf("got %v, want -42", v)
	}
}

func TestElementary_DINT_OutOfRange(t *testing.T) {
	e := Elementary{TypeCode: cip.TypeDINT}
	out := make([]byte, e.Size())
	if err := e.EncodeAt(out, 0, int64(1)<<40); err == nil {
		t.Error("expected out-of-range error, got nil")
	}
}

func TestElementary_REAL_RoundTrip(t *testing.T) {
	e := Elementary{TypeCode: cip.TypeREAL}
	out := make([]byte, e.Size())
	if err := e.EncodeAt(out, 0, 3.5); err != nil {
		t.Fatalf("EncodeAt() error = %v", err)
	}
	v, err := e.DecodeAt(out, 0)
	if err != nil {
		t.Fatalf("DecodeAt() error = %v", err)
	}
	if v.(float32) != 3.5 {
		t.Errorf("got %v, want 3.5", v)
	}
}

func TestElementary_StandaloneString(t *testing.T) {
	e := Elementary{TypeCode: cip.TypeSTRING}
	out := make([]byte, 2+len("hello"))
	if err := e.EncodeAt(out, 0, "hello"); err != nil {
		t.Fatalf("EncodeAt() error = %v", err)
	}
	v, err := e.DecodeAt(out, 0)
	if err != nil {
		t.Fatalf("DecodeAt() error = %v", err)
	}
	if v.(string) != "hello" {
		t.Errorf("got %q, want %q", v, "hello")
	}
}

func TestElementary_FixedMemberString(t *testing.T) {
	e := Elementary{TypeCode: cip.TypeSTRING, StringCapacity: 82}
	out := make([]byte, 2+82)
	if err := e.EncodeAt(out, 0, "hi"); err != nil {
		t.Fatalf("EncodeAt() error = %v", err)
	}
	if len(out) != 84 {
		t.Fatalf("expected fixed 84-byte buffer, got %d", len(out))
	}
	v, err := e.DecodeAt(out, 0)
	if err != nil {
		t.Fatalf("DecodeAt() error = %v", err)
	}
	if v.(string) != "hi" {
		t.Errorf("got %q, want %q", v, "hi")
	}
}

func TestElementary_ShortString(t *testing.T) {
	e := Elementary{TypeCode: cip.TypeSHORT_STRING}
	out := make([]byte, 1+len("abc"))
	if err := e.EncodeAt(out, 0, "abc"); err != nil {
		t.Fatalf("EncodeAt() error = %v", err)
	}
	v, err := e.DecodeAt(out, 0)
	if err != nil {
		t.Fatalf("DecodeAt() error = %v", err)
	}
	if v.(string) != "abc" {
		t.Errorf("got %q, want %q", v, "abc")
	}
}
