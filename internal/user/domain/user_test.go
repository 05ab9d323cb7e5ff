package domain

import "testing"

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ann@Example.COM "); got != "ann@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestValidEmail(t *testing.T) {
	testCases := map[string]bool{
		"ann@example.com":         true,
		"a.b+tag@sub.example.org": true,
		"":                        false,
		"not-an-email":            false,
		"Ann <ann@example.com>":   false,
		"@example.com":            false,
	}
	for in, want := range testCases {
		if got := ValidEmail(in); got != want {
			t.Errorf("ValidEmail(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFullName(t *testing.T) {
	u := &User{FirstName: "Ann", LastName: "Lee"}
	if u.FullName() != "Ann Lee" {
		t.Errorf("FullName = %q", u.FullName())
	}
	if (&User{FirstName: "Ann"}).FullName() != "Ann" {
		t.Error("FullName without last name should not have trailing space")
	}
}
