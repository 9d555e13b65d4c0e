package extractive

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/lograg/internal/domain"
	domrag "github.com/kailas-cloud/lograg/internal/domain/rag"
)

const ctxText = `[1] (app.log, lines 1-3, 2024-01-15T10:30:45Z, INFO)
2024-01-15 10:30:45 INFO Server started
2024-01-15 10:30:46 ERROR Database connection failed
2024-01-15 10:30:47 INFO Retrying connection

[2] (db.log, lines 4-4, ERROR)
2024-01-15 10:31:00 ERROR database pool exhausted`

func TestAnswer_QuotesMatchingLines(t *testing.T) {
	a := New(2)
	res, err := a.Answer(context.Background(), domrag.AnswerRequest{
		Question: "Why did the database fail?", Context: ctxText,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(res.Text, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", res.Text)
	}
	if !strings.Contains(lines[0], "Database connection failed") || !strings.HasSuffix(lines[0], "[1]") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "database pool exhausted") || !strings.HasSuffix(lines[1], "[2]") {
		t.Errorf("second line = %q", lines[1])
	}
	if res.Model != Model || res.TokensUsed == 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestAnswer_Deterministic(t *testing.T) {
	a := New(0)
	req := domrag.AnswerRequest{Question: "connection", Context: ctxText}
	first, _ := a.Answer(context.Background(), req)
	second, _ := a.Answer(context.Background(), req)
	if first.Text != second.Text {
		t.Errorf("answers differ:\n%s\n---\n%s", first.Text, second.Text)
	}
}

func TestAnswer_NoKeywordMatchQuotesFirstLine(t *testing.T) {
	res, err := New(3).Answer(context.Background(), domrag.AnswerRequest{Question: "kubernetes", Context: ctxText})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "2024-01-15 10:30:45 INFO Server started [1]" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestAnswer_EmptyContext(t *testing.T) {
	res, err := New(3).Answer(context.Background(), domrag.AnswerRequest{Question: "anything"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != NoContextAnswer {
		t.Errorf("text = %q", res.Text)
	}
}

func TestAnswer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(3).Answer(ctx, domrag.AnswerRequest{Question: "q", Context: ctxText})
	if !errors.Is(err, domain.ErrAnswererTimeout) || !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error: %v", err)
	}
}
