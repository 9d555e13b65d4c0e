package mode

import "strings"

// Mode is the retrieval strategy.
type Mode string

// Retrieval mode constants.
const (
	// Vector ranks by vector similarity only.
	Vector Mode = "vector"
	// Hybrid reranks vector hits by a blend of similarity and keyword overlap.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Vector || m == Hybrid
}

// Parse maps a client value to a Mode. Empty returns "" so the caller applies its default.
func Parse(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return "", true
	}
	if m == "semantic" {
		return Vector, true
	}
	return m, m.IsValid()
}
