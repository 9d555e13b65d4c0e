package valkey

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/lograg/internal/db"
)

// ScoreField is the alias FT.SEARCH uses for the KNN distance.
const ScoreField = "__vector_score"

// SearchKNN runs FT.SEARCH with a KNN clause. The filter runs inside the
// index ahead of KNN, so every returned row already satisfies it.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("index name is required")
	case len(q.Vector) == 0:
		return nil, errors.New("vector is required")
	case q.K <= 0:
		return nil, errors.New("k must be positive")
	}

	args := []string{q.IndexName, buildKNNQuery(q)}
	if n := len(q.ReturnFields); n > 0 {
		args = append(args, "RETURN", strconv.Itoa(n+1))
		args = append(args, q.ReturnFields...)
		args = append(args, ScoreField)
	}
	args = append(args,
		"PARAMS", "2", "BLOB", db.EncodeVector(q.Vector),
		"LIMIT", "0", strconv.Itoa(q.K),
		"DIALECT", "2",
	)

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseKNNResult(raw)
}

// buildKNNQuery renders "(<filter>)=>[KNN k @vector $BLOB ...]", or "*=>..." without a filter.
func buildKNNQuery(q *db.KNNQuery) string {
	var sb strings.Builder
	if f := buildFilter(q.Filter); f != "" {
		sb.WriteString("(" + f + ")")
	} else {
		sb.WriteString("*")
	}
	fmt.Fprintf(&sb, "=>[KNN %d @vector $BLOB", q.K)
	if q.EFRuntime > 0 {
		fmt.Fprintf(&sb, " EF_RUNTIME %d", q.EFRuntime)
	}
	sb.WriteString("]")
	return sb.String()
}

// parseKNNResult reads the RESP reply [total, key1, [f, v, ...], key2, ...].
// Score carries 1 - distance, the raw cosine.
func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	for rest := raw[1:]; len(rest) >= 2; rest = rest[2:] {
		key, kerr := rest[0].ToString()
		pairs, ferr := rest[1].ToArray()
		if kerr != nil || ferr != nil {
			continue
		}
		entry := db.SearchEntry{Key: key, Fields: fieldMap(pairs)}
		if d, ok := entry.Fields[ScoreField]; ok {
			delete(entry.Fields, ScoreField)
			if dist, perr := strconv.ParseFloat(d, 64); perr == nil {
				entry.Score = 1 - dist
			}
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for ; len(pairs) >= 2; pairs = pairs[2:] {
		name, nerr := pairs[0].ToString()
		value, verr := pairs[1].ToString()
		if nerr == nil && verr == nil {
			m[name] = value
		}
	}
	return m
}

// buildFilter joins tag and range clauses with spaces (implicit AND).
func buildFilter(f db.Filter) string {
	if f.IsEmpty() {
		return ""
	}
	var clauses []string
	for _, t := range f.Tags {
		if c := buildTagFilter(t.Field, t.Values); c != "" {
			clauses = append(clauses, c)
		}
	}
	for _, r := range f.Ranges {
		clauses = append(clauses, buildNumericFilter(r))
	}
	return strings.Join(clauses, " ")
}

func buildTagFilter(field string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return "@" + field + ":{" + strings.Join(escaped, " | ") + "}"
}

func buildNumericFilter(r db.NumericRange) string {
	bound := func(v *float64, inf string) string {
		if v == nil {
			return inf
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}
	return fmt.Sprintf("@%s:[%s %s]", r.Field, bound(r.Min, "-inf"), bound(r.Max, "+inf"))
}

// tagSpecials are the characters the query parser treats as syntax inside a TAG value.
const tagSpecials = `,.<>{}"':;!@#$%^&*()-+=~| `

var tagEscaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(tagSpecials))
	for _, c := range tagSpecials {
		pairs = append(pairs, string(c), `\`+string(c))
	}
	return strings.NewReplacer(pairs...)
}()
