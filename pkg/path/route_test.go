package path

import (
	"bytes"
	"testing"
)

func TestParseRoute_BareIP(t *testing.T) {
	p, err := ParseRoute("1.2.3.4")
	if err != nil {
		t.Fatalf("ParseRoute() error = %v", err)
	}
	want := []byte{0x12, 0x07, '1', '.', '2', '.', '3', '.', '4', 0x00, 0x01, 0x00}
	if !bytes.Equal(p.Bytes(), want) {
		t.Errorf("ParseRoute(%q) = %X, want %X", "1.2.3.4", p.Bytes(), want)
	}
}

func TestParseRoute_IPSlot(t *testing.T) {
	p, err := ParseRoute("1.2.3.4/1")
	if err != nil {
		t.Fatalf("ParseRoute() error = %v", err)
	}
	want := []byte{0x12, 0x07, '1', '.', '2', '.', '3', '.', '4', 0x00, 0x01, 0x01}
	if !bytes.Equal(p.Bytes(), want) {
		t.Errorf("ParseRoute(%q) = %X, want %X", "1.2.3.4/1", p.Bytes(), want)
	}
}

func TestParseRoute_HopChain(t *testing.T) {
	p, err := ParseRoute("1.2.3.4/bp/1/enet/5.6.7.8")
	if err != nil {
		t.Fatalf("ParseRoute() error = %v", err)
	}
	want := []byte{
		0x12, 0x07, '1', '.', '2', '.', '3', '.', '4', 0x00, // enet hop
		0x01, 0x01, // bp/1
		0x12, 0x07, '5', '.', '6', '.', '7', '.', '8', 0x00, // enet/5.6.7.8
	}
	if !bytes.Equal(p.Bytes(), want) {
		t.Errorf("ParseRoute(%q) = %X, want %X", "1.2.3.4/bp/1/enet/5.6.7.8", p.Bytes(), want)
	}
}

func TestParseRoute_CaseInsensitiveAndBackslash(t *testing.T) {
	a, err := ParseRoute(`1.2.3.4\BP\1`)
	if err != nil {
		t.Fatalf("ParseRoute() error = %v", err)
	}
	b, err := ParseRoute("1.2.3.4/bp/1")
	if err != nil {
		t.Fatalf("ParseRoute() error = %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Errorf("case/separator variants diverged: %X vs %X", a.Bytes(), b.Bytes())
	}
}

func TestParseRoute_Errors(t *testing.T) {
	tests := []string{
		"",
		"not-an-ip",
		"1.2.3.4/bp", // dangling hop token
	}
	for _, in := range tests {
		if _, err := ParseRoute(in); err == nil {
			t.Errorf("ParseRoute(%q) expected an error, got nil", in)
		}
	}
}
