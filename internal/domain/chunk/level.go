package chunk

import "strings"

// Canonical log levels.
const (
	LevelTrace    = "TRACE"
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarn     = "WARN"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
	LevelFatal    = "FATAL"
)

var levelAliases = map[string]string{
	"TRACE":    LevelTrace,
	"DEBUG":    LevelDebug,
	"DBG":      LevelDebug,
	"INFO":     LevelInfo,
	"NOTICE":   LevelInfo,
	"WARN":     LevelWarn,
	"WARNING":  LevelWarn,
	"ERROR":    LevelError,
	"ERR":      LevelError,
	"CRITICAL": LevelCritical,
	"CRIT":     LevelCritical,
	"ALERT":    LevelCritical,
	"EMERG":    LevelFatal,
	"FATAL":    LevelFatal,
	"PANIC":    LevelFatal,
}

// NormalizeLevel maps a level token to its canonical upper-case form.
// Returns "" for anything that is not a known level.
func NormalizeLevel(s string) string {
	return levelAliases[strings.ToUpper(strings.Trim(s, " []<>:"))]
}
