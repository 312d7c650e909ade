package triviad

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pkt.systems/pslog"
)

func TestWatchQuestionsFileReloads(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	one := `- id: q1
  category: Testing
  question: First?
  correct_answer: a
  incorrect_answers: [b]
`
	two := one + `- id: q2
  category: Testing
  question: Second?
  correct_answer: a
  incorrect_answers: [b]
`
	if err := os.WriteFile(path, []byte(one), 0o644); err != nil {
		t.Fatalf("write questions file: %v", err)
	}
	questions, err := LoadQuestionsFile(path)
	if err != nil {
		t.Fatalf("LoadQuestionsFile: %v", err)
	}
	c, err := NewCatalog(questions)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := WatchQuestionsFile(ctx, c, path, pslog.NoopLogger()); err != nil {
		t.Fatalf("WatchQuestionsFile: %v", err)
	}

	if err := os.WriteFile(path, []byte(two), 0o644); err != nil {
		t.Fatalf("rewrite questions file: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for c.Len() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("catalog not reloaded, Len() = %d", c.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A malformed rewrite keeps the current set.
	if err := os.WriteFile(path, []byte("not: [valid"), 0o644); err != nil {
		t.Fatalf("write malformed file: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if c.Len() != 2 {
		t.Fatalf("catalog changed after malformed reload, Len() = %d", c.Len())
	}
}
