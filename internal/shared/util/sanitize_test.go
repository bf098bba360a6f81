package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "worksheet.pdf", "worksheet.pdf", false},
		{"slashes replaced", "a/b\\c.pdf", "a_b_c.pdf", false},
		{"trimmed", "  sheet.pdf  ", "sheet.pdf", false},
		{"traversal rejected", "../etc/passwd", "", true},
		{"empty rejected", "   ", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizeFileName(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("SanitizeFileName(%q) succeeded, want error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizeFileName(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeDisplayName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Northside Primary", "Northside Primary"},
		{"control characters stripped", "Evil\x00School\r\n", "EvilSchool"},
		{"trimmed", "  Acme  ", "Acme"},
		{"nothing printable", "\x00\x01\x02", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeDisplayName(tc.in); got != tc.want {
				t.Fatalf("SanitizeDisplayName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}

	long := strings.Repeat("a", 300)
	if got := SanitizeDisplayName(long); len([]rune(got)) != 200 {
		t.Fatalf("long name capped at %d runes, want 200", len([]rune(got)))
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("password stored in the clear")
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Fatal("valid password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatal("wrong password accepted")
	}
}

func TestHashStorageKeyIsStable(t *testing.T) {
	a := HashStorageKey("files/sheet.pdf")
	b := HashStorageKey("files/sheet.pdf")
	if a != b {
		t.Fatal("hash not deterministic")
	}
	if a == HashStorageKey("files/other.pdf") {
		t.Fatal("distinct keys collided")
	}
	if len(a) != 64 {
		t.Fatalf("hex digest length = %d, want 64", len(a))
	}
}
