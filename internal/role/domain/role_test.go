package domain

import (
	"errors"
	"testing"
)

func TestParseName(t *testing.T) {
	testCases := []struct {
		in      string
		want    Name
		wantErr bool
	}{
		{"ORG_ADMIN", OrgAdmin, false},
		{"project_manager", ProjectManager, false},
		{" member ", Member, false},
		{"OWNER", "", true},
		{"", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseName(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownRole) {
					t.Errorf("ParseName(%q) err = %v, want ErrUnknownRole", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseName(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 3 {
		t.Fatalf("Names() = %v, want 3 roles", names)
	}
	for _, n := range names {
		if !n.Valid() {
			t.Errorf("%q should be valid", n)
		}
		if n.Description() == "" {
			t.Errorf("%q should have a description", n)
		}
	}
}
