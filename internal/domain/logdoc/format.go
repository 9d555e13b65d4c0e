package logdoc

import "strings"

// Format is the line layout of a log document.
type Format string

// Supported formats. Auto asks the chunker to detect the format from sampled lines.
const (
	Auto     Format = "auto"
	Standard Format = "standard" // ISO-8601 or "YYYY-MM-DD HH:MM:SS" prefixed lines
	JSONL    Format = "jsonl"
	Access   Format = "access" // Apache/Nginx common and combined
	Syslog   Format = "syslog" // RFC 3164 and RFC 5424
	Unknown  Format = "unknown"
)

// ParseFormat maps a client-supplied hint to a Format. Empty means Auto.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Auto, true
	case Auto, Standard, JSONL, Access, Syslog, Unknown:
		return f, true
	case "json", "ndjson":
		return JSONL, true
	case "apache", "nginx":
		return Access, true
	default:
		return "", false
	}
}

// LineDelimited reports whether entries of this format can be parsed, so chunk
// boundaries must fall between entries.
func (f Format) LineDelimited() bool {
	return f == Standard || f == JSONL || f == Access || f == Syslog
}

// IsValid checks if the format is one of the supported values.
func (f Format) IsValid() bool {
	return f == Auto || f == Standard || f == JSONL || f == Access || f == Syslog || f == Unknown
}
