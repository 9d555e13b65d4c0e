package keyword

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("ERROR: DB-conn failed (code=500) user_id")
	want := []string{"error", "db", "conn", "failed", "code", "500", "user_id"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"errors":    "error",
		"failed":    "fail",
		"fail":      "fail",
		"timeouts":  "timeout",
		"retrying":  "retry",
		"queries":   "query",
		"process":   "process",
		"status":    "status",
		"analysis":  "analysis",
		"red":       "red",
		"bus":       "bus",
		"ring":      "ring",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtract_DropsStopwordsAndQuestionWords(t *testing.T) {
	got := Extract("What errors occurred in the database?")
	if len(got) != 2 {
		t.Fatalf("Extract = %v, want {error, database}", got)
	}
	for _, k := range []string{"error", "database"} {
		if _, ok := got[k]; !ok {
			t.Errorf("missing keyword %q in %v", k, got)
		}
	}
}

func TestOverlap(t *testing.T) {
	q := Extract("What errors occurred?")
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"hit", "2024-01-15T10:30:45Z ERROR Database connection failed", 1},
		{"miss", "INFO Request completed", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlap(q, Extract(tc.text)); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Overlap = %f, want %f", got, tc.want)
			}
		})
	}

	q2 := Extract("database connection errors")
	if got := Overlap(q2, Extract("ERROR database timeout")); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("partial overlap = %f, want 2/3", got)
	}
	if Overlap(Set{}, Extract("anything")) != 0 {
		t.Error("empty query set must yield 0")
	}
}

func TestCount(t *testing.T) {
	q := Extract("timeout errors")
	if got := Count(q, "ERROR timeout; error again, timeouts"); got != 4 {
		t.Errorf("Count = %d, want 4", got)
	}
}
