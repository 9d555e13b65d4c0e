package record

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/lograg/internal/db"
	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
	domrec "github.com/kailas-cloud/lograg/internal/domain/record"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

// Hash fields.
const (
	fieldTenant    = "tenant"
	fieldProject   = "project"
	fieldUser      = "user"
	fieldDocument  = "document"
	fieldContent   = "content"
	fieldStartLine = "start_line"
	fieldEndLine   = "end_line"
	fieldFormat    = "format"
	fieldLevel     = "level"
	fieldSource    = "source"
	fieldTS        = "ts"
	fieldTimestamp = "timestamp"
	fieldCreatedAt = "created_at"
	fieldModel     = "model"
	fieldVector    = "vector"
)

// returnFields is everything a search hit needs, without the vector.
var returnFields = []string{
	fieldTenant, fieldDocument, fieldContent, fieldStartLine, fieldEndLine,
	fieldFormat, fieldLevel, fieldSource, fieldTimestamp, fieldCreatedAt, fieldModel,
}

// buildHashFields flattens a record for HSET. ts is only written when the
// chunk has a timestamp, so date-range filters never match undated chunks.
func buildHashFields(r *domrec.Record) map[string]string {
	c := r.Chunk()
	m := map[string]string{
		fieldTenant:    r.Tenant().Tag(),
		fieldProject:   r.Tenant().ProjectID(),
		fieldUser:      r.Tenant().UserID(),
		fieldDocument:  r.DocumentID(),
		fieldContent:   c.Content(),
		fieldStartLine: strconv.Itoa(c.StartLine()),
		fieldEndLine:   strconv.Itoa(c.EndLine()),
		fieldFormat:    string(c.Format()),
		fieldCreatedAt: strconv.FormatInt(r.CreatedAt().UnixMilli(), 10),
		fieldModel:     r.Model(),
		fieldVector:    db.EncodeVector(r.Embedding()),
	}
	if c.Level() != "" {
		m[fieldLevel] = c.Level()
	}
	if c.Source() != "" {
		m[fieldSource] = c.Source()
	}
	if ts := c.Timestamp(); ts != nil {
		m[fieldTS] = strconv.FormatInt(ts.UnixMilli(), 10)
		m[fieldTimestamp] = ts.UTC().Format(time.RFC3339Nano)
	}
	return m
}

// parseChunk rebuilds the chunk part of a stored record.
func parseChunk(m map[string]string) (chunk.Chunk, error) {
	start, err := strconv.Atoi(m[fieldStartLine])
	if err != nil {
		return chunk.Chunk{}, fmt.Errorf("parse %s: %w", fieldStartLine, err)
	}
	end, err := strconv.Atoi(m[fieldEndLine])
	if err != nil {
		return chunk.Chunk{}, fmt.Errorf("parse %s: %w", fieldEndLine, err)
	}

	meta := &chunk.Metadata{Level: m[fieldLevel], Source: m[fieldSource]}
	if s := m[fieldTimestamp]; s != "" {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			meta.Timestamp = &ts
		}
	}
	return chunk.Reconstruct(m[fieldContent], start, end, logdoc.Format(m[fieldFormat]), meta), nil
}

func parseCreatedAt(m map[string]string) time.Time {
	ms, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// parseRecord rebuilds a full record from HGETALL output.
func parseRecord(t tenant.Key, id string, m map[string]string) (domrec.Record, error) {
	c, err := parseChunk(m)
	if err != nil {
		return domrec.Record{}, err
	}
	return domrec.Reconstruct(id, t, m[fieldDocument], c,
		db.DecodeVector(m[fieldVector]), m[fieldModel], parseCreatedAt(m)), nil
}
