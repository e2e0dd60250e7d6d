package cep

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"01310-100", "01310100", true},
		{"01310100", "01310100", true},
		{" 01310.100 ", "01310100", true},
		{"01310", "01310000", true},
		{"013101", "01310100", true},
		{"0131010099", "01310100", true},
		{"1234", "", false},
		{"", "", false},
		{"abc-de", "", false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("Normalize(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, in := range []string{"01310-100", "98765", "12345-6789"} {
		once, ok := Normalize(in)
		if !ok {
			t.Fatalf("expected %q to normalize", in)
		}
		twice, ok := Normalize(once)
		if !ok || twice != once {
			t.Fatalf("normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNewRange(t *testing.T) {
	r, err := NewRange("01000-000", "01999-999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != "01000000" || r.End != "01999999" {
		t.Fatalf("unexpected range %+v", r)
	}

	if _, err := NewRange("02000000", "01000000"); err == nil {
		t.Fatalf("expected error when end precedes start")
	}
	if _, err := NewRange("12", "01000000"); err == nil {
		t.Fatalf("expected error for malformed start")
	}

	single, err := NewRange("01310100", "01310100")
	if err != nil {
		t.Fatalf("single-code range should be valid: %v", err)
	}
	if !single.Contains("01310100") || single.Contains("01310101") {
		t.Fatalf("single-code range matched wrongly")
	}
}

func TestMatchAny(t *testing.T) {
	ranges := []Range{
		{Start: "01000000", End: "01999999"},
		{Start: "20000000", End: "20099999"},
	}
	tests := []struct {
		in   string
		want bool
	}{
		{"01000-000", true},
		{"01999-999", true},
		{"01500", true},
		{"02000-000", false},
		{"20050-123", true},
		{"1234", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := MatchAny(tt.in, ranges); got != tt.want {
			t.Fatalf("MatchAny(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if MatchAny("01310100", nil) {
		t.Fatalf("no ranges should never match")
	}
}

func TestFormat(t *testing.T) {
	if got := Format("01310100"); got != "01310-100" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := Format("123"); got != "123" {
		t.Fatalf("short input should be unchanged, got %q", got)
	}
}
