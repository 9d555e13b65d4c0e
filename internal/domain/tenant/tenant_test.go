package tenant

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/lograg/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	k, err := New("p1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.ProjectID() != "p1" || k.UserID() != "u1" {
		t.Errorf("unexpected key: %v", k)
	}
	if k.IsZero() {
		t.Error("valid key reported as zero")
	}
	if k.String() != "p1/u1" {
		t.Errorf("String() = %q", k.String())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name, project, user string
	}{
		{"empty project", "", "u1"},
		{"empty user", "p1", ""},
		{"too long", strings.Repeat("p", MaxIDLength+1), "u1"},
		{"control char", "p\n1", "u1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.project, tc.user)
			if !errors.Is(err, domain.ErrTenantIsolation) {
				t.Errorf("expected ErrTenantIsolation, got %v", err)
			}
		})
	}
}

func TestZeroKey_Validate(t *testing.T) {
	var k Key
	if !k.IsZero() {
		t.Error("zero key not reported as zero")
	}
	if err := k.Validate(); !errors.Is(err, domain.ErrTenantIsolation) {
		t.Errorf("expected ErrTenantIsolation, got %v", err)
	}
}

func TestTag_StableAndDistinct(t *testing.T) {
	a := MustNew("p1", "u1")
	b := MustNew("p2", "u1")
	// "p1"+"u1x" must not collide with "p1u"+"1x"
	c := MustNew("p1", "u1x")
	d := MustNew("p1u", "1x")

	if a.Tag() != MustNew("p1", "u1").Tag() {
		t.Error("tag is not stable")
	}
	if a.Tag() == b.Tag() {
		t.Error("different projects share a tag")
	}
	if c.Tag() == d.Tag() {
		t.Error("separator ambiguity produced equal tags")
	}
	if len(a.Tag()) != 32 {
		t.Errorf("tag length = %d, want 32", len(a.Tag()))
	}
	for _, r := range a.Tag() {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("tag contains non-hex rune %q", r)
		}
	}
}
