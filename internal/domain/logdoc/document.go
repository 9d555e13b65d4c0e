// Package logdoc holds the LogDocument value object handed over by ingestion.
package logdoc

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// Limits.
const (
	MaxIDLength = 256
	MaxTextSize = 10 << 20 // 10 MiB
)

// Document is raw log text plus its declared format. Immutable.
type Document struct {
	id     string
	tenant tenant.Key
	text   string
	format Format
}

// New validates and creates a Document. An empty text is allowed and chunks to nothing.
func New(id string, t tenant.Key, text string, format Format) (Document, error) {
	if err := t.Validate(); err != nil {
		return Document{}, err //nolint:wrapcheck // already carries ErrTenantIsolation
	}
	if id == "" {
		return Document{}, fmt.Errorf("document id is required: %w", domain.ErrInvalidDocument)
	}
	if len(id) > MaxIDLength {
		return Document{}, fmt.Errorf("document id too long (max %d): %w", MaxIDLength, domain.ErrInvalidDocument)
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf(
			"document id must match %s: %w", idRegex.String(), domain.ErrInvalidDocument)
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("text too large (max %d bytes): %w", MaxTextSize, domain.ErrInvalidDocument)
	}
	if format == "" {
		format = Auto
	}
	if !format.IsValid() {
		return Document{}, fmt.Errorf("unsupported format %q: %w", format, domain.ErrInvalidDocument)
	}
	return Document{id: id, tenant: t, text: text, format: format}, nil
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Tenant returns the owning tenant.
func (d Document) Tenant() tenant.Key { return d.tenant }

// Text returns the raw log text.
func (d Document) Text() string { return d.text }

// Format returns the declared format (Auto when not declared).
func (d Document) Format() Format { return d.format }
