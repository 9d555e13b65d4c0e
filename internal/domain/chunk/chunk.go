// Package chunk holds the Chunk value object: a bounded passage of log text,
// the unit of embedding and retrieval.
package chunk

import (
	"errors"
	"time"

	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
)

// Metadata is extracted from the first parsed entry of a chunk. Any field may be empty.
type Metadata struct {
	Timestamp *time.Time
	Level     string
	Source    string
}

// IsEmpty reports whether nothing was extracted.
func (m *Metadata) IsEmpty() bool {
	return m == nil || (m.Timestamp == nil && m.Level == "" && m.Source == "")
}

// Chunk is a passage of log text with its 1-based inclusive line range.
type Chunk struct {
	content   string
	startLine int
	endLine   int
	format    logdoc.Format
	meta      *Metadata
}

// New validates and creates a Chunk. meta may be nil.
func New(content string, startLine, endLine int, format logdoc.Format, meta *Metadata) (Chunk, error) {
	if content == "" {
		return Chunk{}, errors.New("chunk content is required")
	}
	if startLine < 1 {
		return Chunk{}, errors.New("start line must be >= 1")
	}
	if endLine < startLine {
		return Chunk{}, errors.New("end line must be >= start line")
	}
	if meta.IsEmpty() {
		meta = nil
	}
	return Chunk{content: content, startLine: startLine, endLine: endLine, format: format, meta: meta}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(content string, startLine, endLine int, format logdoc.Format, meta *Metadata) Chunk {
	if meta.IsEmpty() {
		meta = nil
	}
	return Chunk{content: content, startLine: startLine, endLine: endLine, format: format, meta: meta}
}

// Content returns the chunk text.
func (c Chunk) Content() string { return c.content }

// StartLine returns the first source line (1-based).
func (c Chunk) StartLine() int { return c.startLine }

// EndLine returns the last source line (inclusive).
func (c Chunk) EndLine() int { return c.endLine }

// Format returns the format the chunk was parsed with.
func (c Chunk) Format() logdoc.Format { return c.format }

// Metadata returns extracted metadata or nil.
func (c Chunk) Metadata() *Metadata { return c.meta }

// Timestamp returns the metadata timestamp or nil.
func (c Chunk) Timestamp() *time.Time {
	if c.meta == nil {
		return nil
	}
	return c.meta.Timestamp
}

// Level returns the metadata level or "".
func (c Chunk) Level() string {
	if c.meta == nil {
		return ""
	}
	return c.meta.Level
}

// Source returns the metadata source or "".
func (c Chunk) Source() string {
	if c.meta == nil {
		return ""
	}
	return c.meta.Source
}

// Shift returns a copy with the line range moved down by offset lines.
// Used when appending text to a document that already has offset lines.
func (c Chunk) Shift(offset int) Chunk {
	if offset <= 0 {
		return c
	}
	c.startLine += offset
	c.endLine += offset
	return c
}
