package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestDigest(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"password", "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"},
		{"  password\t", "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"},
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, tt := range tests {
		got := Digest(tt.in)
		if got != tt.want {
			t.Errorf("Digest(%q) = %s, want %s", tt.in, got, tt.want)
		}
		if len(got) != DigestLen {
			t.Errorf("len(Digest(%q)) = %d, want %d", tt.in, len(got), DigestLen)
		}
	}
}

func TestDigest_Deterministic(t *testing.T) {
	if Digest("Segredo123") != Digest("Segredo123") {
		t.Error("Digest() differs for identical input")
	}
	if Digest("Segredo123") == Digest("segredo123") {
		t.Error("Digest() should be case-sensitive on the password")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana.Silva@Example.COM "); got != "ana.silva@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		pwd  string
		weak bool
	}{
		{"Abcdefg1", false},
		{"SenhaForte2024", false},
		{"Abcdef1", true},  // 7 chars
		{"abcdefg1", true}, // no upper
		{"ABCDEFG1", true}, // no lower
		{"Abcdefgh", true}, // no digit
		{"Ábcdefg1", true}, // non-ASCII upper only
		{"", true},
	}
	for _, tt := range tests {
		err := CheckPasswordStrength(tt.pwd)
		if tt.weak && !errors.Is(err, ErrWeakPassword) {
			t.Errorf("CheckPasswordStrength(%q) = %v, want ErrWeakPassword", tt.pwd, err)
		}
		if !tt.weak && err != nil {
			t.Errorf("CheckPasswordStrength(%q) = %v, want nil", tt.pwd, err)
		}
	}
}

func TestMatches(t *testing.T) {
	stored := Digest("Segredo123")
	tests := []struct {
		name     string
		password string
		stored   string
		want     bool
	}{
		{"exact", "Segredo123", stored, true},
		{"uppercase stored hex", "Segredo123", strings.ToUpper(stored), true},
		{"surrounding space", " Segredo123 ", stored, true},
		{"wrong password", "segredo123", stored, false},
		{"empty stored", "Segredo123", "", false},
	}
	for _, tt := range tests {
		if got := Matches(tt.password, tt.stored); got != tt.want {
			t.Errorf("%s: Matches() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
