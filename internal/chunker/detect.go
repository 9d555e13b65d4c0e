package chunker

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
)

var (
	// 2024-01-15T10:30:45Z, 2024-01-15 10:30:45,123, [2024-01-15T10:30:45.123+02:00]
	standardRe = regexp.MustCompile(
		`^\[?(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\]?(?:\s+|$)`)

	// common and combined log format
	accessRe = regexp.MustCompile(
		`^(\S+) \S+ \S+ \[([^\]]+)\] "(?:[A-Z]+ [^"]*|[^"]*)" (\d{3}) (?:\d+|-)`)

	// <34>1 2024-01-15T10:30:45Z host app 123 ID47 msg
	syslog5424Re = regexp.MustCompile(
		`^<(\d{1,3})>1 (\S+) (\S+) (\S+) (\S+) (\S+) ?(.*)$`)

	// <34>Jan 15 10:30:45 host app[123]: msg
	syslog3164Re = regexp.MustCompile(
		`^(?:<(\d{1,3})>)?([A-Z][a-z]{2} [ \d]\d \d{2}:\d{2}:\d{2}) (\S+) ([^:\[\s]+)(?:\[\d+\])?: ?(.*)$`)
)

// Detect picks the format of the first sample non-blank lines by majority vote.
// The winner needs at least DetectRatio of the sample, otherwise Unknown.
func Detect(lines []string, sample int) logdoc.Format {
	counts := make(map[logdoc.Format]int)
	seen := 0
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		counts[classify(l)]++
		seen++
		if seen >= sample {
			break
		}
	}
	if seen == 0 {
		return logdoc.Unknown
	}

	best, bestN := logdoc.Unknown, 0
	// фиксированный порядок, чтобы ничьи разрешались детерминированно
	for _, f := range []logdoc.Format{logdoc.JSONL, logdoc.Access, logdoc.Syslog, logdoc.Standard} {
		if counts[f] > bestN {
			best, bestN = f, counts[f]
		}
	}
	if float64(bestN) < DetectRatio*float64(seen) {
		return logdoc.Unknown
	}
	return best
}

func classify(line string) logdoc.Format {
	switch {
	case isJSONLine(line):
		return logdoc.JSONL
	case accessRe.MatchString(line):
		return logdoc.Access
	case syslog5424Re.MatchString(line) || syslog3164Re.MatchString(line):
		return logdoc.Syslog
	case standardRe.MatchString(line):
		return logdoc.Standard
	default:
		return logdoc.Unknown
	}
}

func isJSONLine(line string) bool {
	return strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}") && json.Valid([]byte(line))
}
