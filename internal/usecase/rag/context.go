package rag

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
)

// truncationMark ends a chunk cut to fit the context budget.
const truncationMark = " …"

// buildContext renders results in order as numbered passages until maxChars
// runes are used. It returns the rendered context and the results that made
// it in, so citation numbers match sources. An oversized first passage is
// cut instead of dropped.
func buildContext(results []result.Result, maxChars int) (string, []result.Result) {
	var b strings.Builder
	used := 0
	included := make([]result.Result, 0, len(results))

	for i, r := range results {
		header := passageHeader(i+1, r)
		sep := ""
		if i > 0 {
			sep = "\n\n"
		}
		content := r.Chunk().Content()
		size := utf8.RuneCountInString(sep+header) + 1 + utf8.RuneCountInString(content)

		if used+size > maxChars {
			if i > 0 {
				break
			}
			room := maxChars - utf8.RuneCountInString(header) - 1 - utf8.RuneCountInString(truncationMark)
			if room <= 0 {
				break
			}
			content = cutRunes(content, room) + truncationMark
			size = utf8.RuneCountInString(header) + 1 + utf8.RuneCountInString(content)
		}

		b.WriteString(sep)
		b.WriteString(header)
		b.WriteByte('\n')
		b.WriteString(content)
		used += size
		included = append(included, r)
	}
	return b.String(), included
}

// passageHeader: [n] (document, lines a-b, timestamp, level)
func passageHeader(n int, r result.Result) string {
	c := r.Chunk()
	parts := []string{r.DocumentID(), fmt.Sprintf("lines %d-%d", c.StartLine(), c.EndLine())}
	if ts := c.Timestamp(); ts != nil {
		parts = append(parts, ts.UTC().Format(time.RFC3339))
	}
	if c.Level() != "" {
		parts = append(parts, c.Level())
	}
	return fmt.Sprintf("[%d] (%s)", n, strings.Join(parts, ", "))
}

func cutRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
