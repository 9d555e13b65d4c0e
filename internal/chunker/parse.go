package chunker

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
)

// maxContinuationLines caps how many untimestamped lines join a standard entry.
const maxContinuationLines = 64

type entry struct {
	text      string
	startLine int
	endLine   int
	meta      *chunk.Metadata
}

var standardLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
}

func parseEntries(lines []string, format logdoc.Format, now time.Time) []entry {
	var out []entry
	continuation := 0
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if format == logdoc.Standard {
			meta, ok := parseStandard(line)
			if !ok && len(out) > 0 && out[len(out)-1].meta != nil && continuation < maxContinuationLines {
				last := &out[len(out)-1]
				last.text += "\n" + line
				last.endLine = lineNo
				continuation++
				continue
			}
			continuation = 0
			out = append(out, entry{text: line, startLine: lineNo, endLine: lineNo, meta: meta})
			continue
		}

		var meta *chunk.Metadata
		switch format {
		case logdoc.JSONL:
			meta = parseJSON(line)
		case logdoc.Access:
			meta = parseAccess(line)
		case logdoc.Syslog:
			meta = parseSyslog(line, now)
		}
		out = append(out, entry{text: line, startLine: lineNo, endLine: lineNo, meta: meta})
	}
	return out
}

// rawLineEntries treats every non-blank line as an entry and splits lines
// longer than maxSize on rune boundaries.
func rawLineEntries(lines []string, maxSize int) []entry {
	var out []entry
	for i, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, piece := range splitRunes(line, maxSize) {
			out = append(out, entry{text: piece, startLine: i + 1, endLine: i + 1})
		}
	}
	return out
}

func splitRunes(s string, size int) []string {
	if runeLen(s) <= size {
		return []string{s}
	}
	var out []string
	r := []rune(s)
	for len(r) > size {
		out = append(out, string(r[:size]))
		r = r[size:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

// --- standard ---

func parseStandard(line string) (*chunk.Metadata, bool) {
	m := standardRe.FindStringSubmatchIndex(line)
	if m == nil {
		return nil, false
	}
	meta := &chunk.Metadata{}
	if ts, ok := parseStandardTime(line[m[2]:m[3]]); ok {
		meta.Timestamp = &ts
	}
	meta.Level, meta.Source = scanLevelAndSource(strings.Fields(line[m[1]:]), 4)
	return meta, true
}

func parseStandardTime(s string) (time.Time, bool) {
	s = strings.Replace(s, ",", ".", 1)
	for _, layout := range standardLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// scanLevelAndSource looks at the first n tokens for a level keyword and a
// bracketed or "name:" component, e.g. "[db-pool] ERROR" or "ERROR api:".
func scanLevelAndSource(tokens []string, n int) (level, source string) {
	for i, tok := range tokens {
		if i >= n {
			break
		}
		if level == "" {
			if l := chunk.NormalizeLevel(tok); l != "" {
				level = l
				continue
			}
		}
		if source == "" {
			source = sourceToken(tok)
		}
	}
	return level, source
}

func sourceToken(tok string) string {
	var name string
	switch {
	case strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") && len(tok) > 2:
		name = tok[1 : len(tok)-1]
	case strings.HasSuffix(tok, ":") && len(tok) > 1:
		name = tok[:len(tok)-1]
	default:
		return ""
	}
	if chunk.NormalizeLevel(name) != "" {
		return ""
	}
	if _, err := strconv.Atoi(name); err == nil {
		return ""
	}
	return name
}

// --- jsonl ---

var (
	jsonTimeKeys   = []string{"timestamp", "time", "ts", "@timestamp", "datetime"}
	jsonLevelKeys  = []string{"level", "severity", "lvl", "log.level"}
	jsonSourceKeys = []string{"service", "source", "logger", "component", "app"}
)

func parseJSON(line string) *chunk.Metadata {
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return nil
	}
	meta := &chunk.Metadata{}
	for _, k := range jsonTimeKeys {
		if ts, ok := jsonTime(obj[k]); ok {
			meta.Timestamp = &ts
			break
		}
	}
	for _, k := range jsonLevelKeys {
		if s, ok := obj[k].(string); ok {
			if l := chunk.NormalizeLevel(s); l != "" {
				meta.Level = l
				break
			}
		}
	}
	for _, k := range jsonSourceKeys {
		if s, ok := obj[k].(string); ok && s != "" {
			meta.Source = s
			break
		}
	}
	if meta.IsEmpty() {
		return nil
	}
	return meta
}

func jsonTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		return parseStandardTime(t)
	case float64:
		// epoch seconds or milliseconds
		if t > 1e12 {
			return time.UnixMilli(int64(t)).UTC(), true
		}
		if t > 0 {
			sec := int64(t)
			return time.Unix(sec, int64((t-float64(sec))*1e9)).UTC(), true
		}
	}
	return time.Time{}, false
}

// --- access ---

const accessTimeLayout = "02/Jan/2006:15:04:05 -0700"

func parseAccess(line string) *chunk.Metadata {
	m := accessRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	meta := &chunk.Metadata{Source: m[1]}
	if ts, err := time.Parse(accessTimeLayout, m[2]); err == nil {
		ts = ts.UTC()
		meta.Timestamp = &ts
	}
	if status, err := strconv.Atoi(m[3]); err == nil {
		meta.Level = levelFromStatus(status)
	}
	return meta
}

func levelFromStatus(status int) string {
	switch {
	case status >= 500:
		return chunk.LevelError
	case status >= 400:
		return chunk.LevelWarn
	default:
		return chunk.LevelInfo
	}
}

// --- syslog ---

var severityLevels = [8]string{
	chunk.LevelFatal,    // emerg
	chunk.LevelCritical, // alert
	chunk.LevelCritical, // crit
	chunk.LevelError,    // err
	chunk.LevelWarn,     // warning
	chunk.LevelInfo,     // notice
	chunk.LevelInfo,     // info
	chunk.LevelDebug,    // debug
}

func parseSyslog(line string, now time.Time) *chunk.Metadata {
	if m := syslog5424Re.FindStringSubmatch(line); m != nil {
		meta := &chunk.Metadata{Level: levelFromPRI(m[1])}
		if ts, err := time.Parse(time.RFC3339Nano, m[2]); err == nil {
			ts = ts.UTC()
			meta.Timestamp = &ts
		}
		if m[4] != "-" {
			meta.Source = m[4]
		}
		if meta.Level == "" {
			meta.Level, _ = scanLevelAndSource(strings.Fields(m[7]), 3)
		}
		return meta
	}
	if m := syslog3164Re.FindStringSubmatch(line); m != nil {
		meta := &chunk.Metadata{Level: levelFromPRI(m[1]), Source: m[4]}
		if ts, ok := parse3164Time(m[2], now); ok {
			meta.Timestamp = &ts
		}
		if meta.Level == "" {
			meta.Level, _ = scanLevelAndSource(strings.Fields(m[5]), 3)
		}
		return meta
	}
	return nil
}

func levelFromPRI(s string) string {
	if s == "" {
		return ""
	}
	pri, err := strconv.Atoi(s)
	if err != nil || pri < 0 || pri > 191 {
		return ""
	}
	return severityLevels[pri%8]
}

// parse3164Time completes the year-less stamp with the current year, rolling
// back one year for stamps that would land more than a day in the future.
func parse3164Time(s string, now time.Time) (time.Time, bool) {
	t, err := time.Parse(time.Stamp, s)
	if err != nil {
		return time.Time{}, false
	}
	now = now.UTC()
	t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	if t.After(now.Add(24 * time.Hour)) {
		t = t.AddDate(-1, 0, 0)
	}
	return t, true
}
