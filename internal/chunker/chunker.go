// Package chunker splits log documents into overlapping, entry-aligned chunks.
package chunker

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
)

// Default sizes in characters.
const (
	DefaultMinSize     = 500
	DefaultMaxSize     = 1000
	DefaultOverlap     = 100
	DefaultSampleLines = 20
	// DetectRatio is the share of sampled lines one format needs to win detection.
	DetectRatio = 0.6
)

// Config controls chunk sizing and format detection.
type Config struct {
	MinSize     int
	MaxSize     int
	Overlap     int
	SampleLines int
}

// DefaultConfig returns 500-1000 char chunks with 100 char overlap.
func DefaultConfig() Config {
	return Config{
		MinSize:     DefaultMinSize,
		MaxSize:     DefaultMaxSize,
		Overlap:     DefaultOverlap,
		SampleLines: DefaultSampleLines,
	}
}

// Validate checks size relations.
func (c Config) Validate() error {
	if c.MaxSize <= 0 {
		return errors.New("max size must be positive")
	}
	if c.MinSize < 0 || c.MinSize > c.MaxSize {
		return errors.New("min size must be between 0 and max size")
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxSize {
		return errors.New("overlap must be between 0 and max size")
	}
	if c.SampleLines <= 0 {
		return errors.New("sample lines must be positive")
	}
	return nil
}

// Result is the chunked document plus the format it was parsed with.
type Result struct {
	Chunks []chunk.Chunk
	Format logdoc.Format
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithClock sets the clock used to complete year-less syslog timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Chunker) { c.now = now }
}

// Chunker is stateless and safe for concurrent use.
type Chunker struct {
	cfg Config
	now func() time.Time
}

// New creates a Chunker. A zero Config means DefaultConfig; otherwise
// invalid fields fall back to defaults one by one and Overlap 0 is kept.
func New(cfg Config, opts ...Option) *Chunker {
	def := DefaultConfig()
	if cfg == (Config{}) {
		cfg = def
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.MinSize <= 0 || cfg.MinSize > cfg.MaxSize {
		cfg.MinSize = min(def.MinSize, cfg.MaxSize/2)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxSize {
		cfg.Overlap = min(def.Overlap, cfg.MaxSize/10)
	}
	if cfg.SampleLines <= 0 {
		cfg.SampleLines = def.SampleLines
	}
	c := &Chunker{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Chunker) Config() Config { return c.cfg }

// Chunk splits doc into chunks. An empty document yields no chunks.
func (c *Chunker) Chunk(doc logdoc.Document) []chunk.Chunk {
	return c.Split(doc).Chunks
}

// Split chunks doc and reports the format used. Auto triggers detection.
func (c *Chunker) Split(doc logdoc.Document) Result {
	lines := splitLines(doc.Text())

	format := doc.Format()
	if format == logdoc.Auto || format == "" {
		format = Detect(lines, c.cfg.SampleLines)
	}
	if isBlank(lines) {
		return Result{Format: format}
	}

	var entries []entry
	if format.LineDelimited() {
		entries = parseEntries(lines, format, c.now())
	} else {
		entries = rawLineEntries(lines, c.cfg.MaxSize)
	}

	return Result{Chunks: c.pack(entries, format), Format: format}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
