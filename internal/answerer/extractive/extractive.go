// Package extractive is a deterministic local Answerer: it quotes the context
// lines that share the most keywords with the question, each with its
// citation marker.
package extractive

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/keyword"
	domrag "github.com/kailas-cloud/lograg/internal/domain/rag"
)

// Model is reported as the model that produced the answer.
const Model = "extractive"

// DefaultMaxLines bounds quoted lines.
const DefaultMaxLines = 3

// NoContextAnswer is returned for an empty context.
const NoContextAnswer = "The provided logs contain no information to answer this question."

var headerRe = regexp.MustCompile(`^\[(\d+)\] \(`)

// Answerer quotes the best matching lines.
type Answerer struct {
	maxLines int
}

// New creates an extractive answerer quoting at most maxLines lines.
func New(maxLines int) *Answerer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Answerer{maxLines: maxLines}
}

type candidate struct {
	text     string
	citation string
	score    int
	pos      int
}

// Answer implements domrag.Answerer.
func (a *Answerer) Answer(ctx context.Context, req domrag.AnswerRequest) (domrag.AnswerResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return domrag.AnswerResult{}, fmt.Errorf("%w: %w", domain.ErrAnswererTimeout, err)
	}

	cands := parse(req.Context, keyword.Extract(req.Question))
	if len(cands) == 0 {
		return domrag.AnswerResult{Text: NoContextAnswer, Model: Model, Latency: time.Since(start)}, nil
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].pos < cands[j].pos
	})

	picked := cands[:0:0]
	for _, c := range cands {
		if len(picked) == a.maxLines {
			break
		}
		if c.score == 0 && len(picked) > 0 {
			break
		}
		picked = append(picked, c)
	}
	// в порядке появления в контексте
	sort.Slice(picked, func(i, j int) bool { return picked[i].pos < picked[j].pos })

	lines := make([]string, len(picked))
	tokens := 0
	for i, c := range picked {
		lines[i] = c.text + " " + c.citation
		tokens += len(keyword.Tokenize(c.text))
	}
	return domrag.AnswerResult{
		Text:       strings.Join(lines, "\n"),
		TokensUsed: tokens,
		Latency:    time.Since(start),
		Model:      Model,
	}, nil
}

// HealthCheck always succeeds.
func (a *Answerer) HealthCheck(context.Context) error { return nil }

// parse splits the numbered context into scored content lines.
func parse(text string, q keyword.Set) []candidate {
	var out []candidate
	citation := ""
	for _, line := range strings.Split(text, "\n") {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			citation = "[" + m[1] + "]"
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" || citation == "" {
			continue
		}
		out = append(out, candidate{text: line, citation: citation, score: keyword.Count(q, line), pos: len(out)})
	}
	return out
}
