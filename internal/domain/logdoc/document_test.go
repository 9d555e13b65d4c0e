package logdoc

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

func TestNew_Valid(t *testing.T) {
	tk := tenant.MustNew("p1", "u1")
	d, err := New("app-2024.01.15.log", tk, "2024-01-15T10:30:45Z INFO ok", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID() != "app-2024.01.15.log" {
		t.Errorf("ID = %q", d.ID())
	}
	if d.Format() != Auto {
		t.Errorf("empty format should default to auto, got %q", d.Format())
	}
	if d.Tenant() != tk {
		t.Errorf("tenant = %v", d.Tenant())
	}
}

func TestNew_EmptyTextAllowed(t *testing.T) {
	if _, err := New("empty", tenant.MustNew("p", "u"), "", Standard); err != nil {
		t.Fatalf("empty text must be accepted: %v", err)
	}
}

func TestNew_Invalid(t *testing.T) {
	tk := tenant.MustNew("p1", "u1")
	tests := []struct {
		name   string
		id     string
		tk     tenant.Key
		text   string
		format Format
		want   error
	}{
		{"no tenant", "a", tenant.Key{}, "x", Auto, domain.ErrTenantIsolation},
		{"empty id", "", tk, "x", Auto, domain.ErrInvalidDocument},
		{"bad id", "a b", tk, "x", Auto, domain.ErrInvalidDocument},
		{"long id", strings.Repeat("a", MaxIDLength+1), tk, "x", Auto, domain.ErrInvalidDocument},
		{"bad format", "a", tk, "x", Format("csv"), domain.ErrInvalidDocument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.id, tc.tk, tc.text, tc.format)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         Auto,
		"auto":     Auto,
		"Standard": Standard,
		"json":     JSONL,
		"ndjson":   JSONL,
		"nginx":    Access,
		"apache":   Access,
		"syslog":   Syslog,
		"unknown":  Unknown,
	}
	for in, want := range tests {
		got, ok := ParseFormat(in)
		if !ok || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseFormat("csv"); ok {
		t.Error("csv must be rejected")
	}
}

func TestLineDelimited(t *testing.T) {
	for _, f := range []Format{Standard, JSONL, Access, Syslog} {
		if !f.LineDelimited() {
			t.Errorf("%q should be line-delimited", f)
		}
	}
	for _, f := range []Format{Auto, Unknown} {
		if f.LineDelimited() {
			t.Errorf("%q should not be line-delimited", f)
		}
	}
}
