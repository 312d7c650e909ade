package triviad

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// seqRand replays a fixed sequence of draws, wrapping values into range.
type seqRand struct {
	values []int
	pos    int
}

func (r *seqRand) IntN(n int) int {
	if n <= 0 {
		panic("IntN called with non-positive bound")
	}
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.pos%len(r.values)]
	r.pos++
	return v % n
}

func testQuestions() []Question {
	return []Question{
		{ID: "sci-1", Category: "Science", Question: "What planet is known as the Red Planet?", CorrectAnswer: "Mars", IncorrectAnswers: []string{"Venus", "Jupiter", "Saturn"}},
		{ID: "sci-2", Category: "Science", Question: "What gas do plants absorb?", CorrectAnswer: "Carbon dioxide", IncorrectAnswers: []string{"Oxygen", "Nitrogen"}},
		{ID: "hist-1", Category: "History", Question: "Who was the first president of the United States?", CorrectAnswer: "George Washington", IncorrectAnswers: []string{"Thomas Jefferson", "John Adams"}},
	}
}

func TestDefaultCatalogEmbeddedQuestions(t *testing.T) {
	t.Parallel()
	c := DefaultCatalog()
	if c.Len() == 0 {
		t.Fatal("embedded catalog is empty")
	}
	if len(c.Categories()) == 0 {
		t.Fatal("embedded catalog has no categories")
	}
}

func TestNewCatalogValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name      string
		questions []Question
	}{
		{"empty", nil},
		{"missing id", []Question{{Category: "c", Question: "q", CorrectAnswer: "a", IncorrectAnswers: []string{"b"}}}},
		{"duplicate id", append(testQuestions(), testQuestions()[0])},
		{"missing correct answer", []Question{{ID: "x", Category: "c", Question: "q", IncorrectAnswers: []string{"b"}}}},
		{"no incorrect answers", []Question{{ID: "x", Category: "c", Question: "q", CorrectAnswer: "a"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewCatalog(tc.questions); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCatalogCategoriesFirstSeenOrder(t *testing.T) {
	t.Parallel()
	c, err := NewCatalog(testQuestions())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	got := c.Categories()
	want := []string{"Science", "History"}
	if len(got) != len(want) {
		t.Fatalf("Categories() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Categories() = %v, want %v", got, want)
		}
	}
}

func TestCatalogSelectRandom(t *testing.T) {
	t.Parallel()
	c, err := NewCatalog(testQuestions())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	q, err := c.SelectRandom("history", &seqRand{})
	if err != nil {
		t.Fatalf("SelectRandom(history): %v", err)
	}
	if q.ID != "hist-1" {
		t.Fatalf("SelectRandom(history) = %q, want hist-1", q.ID)
	}

	q, err = c.SelectRandom("", &seqRand{values: []int{2}})
	if err != nil {
		t.Fatalf("SelectRandom(all): %v", err)
	}
	if q.ID != "hist-1" {
		t.Fatalf("SelectRandom(all) with draw 2 = %q, want hist-1", q.ID)
	}

	if _, err := c.SelectRandom("Geography", &seqRand{}); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("SelectRandom(Geography) error = %v, want ErrNoQuestions", err)
	}
}

func TestShuffleOptions(t *testing.T) {
	t.Parallel()
	q := testQuestions()[0]
	original := append([]string(nil), q.IncorrectAnswers...)

	options := ShuffleOptions(q, &seqRand{})
	if len(options) != len(q.IncorrectAnswers)+1 {
		t.Fatalf("got %d options, want %d", len(options), len(q.IncorrectAnswers)+1)
	}
	correctCount := 0
	for _, opt := range options {
		if opt == q.CorrectAnswer {
			correctCount++
		}
	}
	if correctCount != 1 {
		t.Fatalf("correct answer appears %d times, want exactly once", correctCount)
	}
	for i := range original {
		if q.IncorrectAnswers[i] != original[i] {
			t.Fatal("ShuffleOptions mutated the question's incorrect answers")
		}
	}
}

func TestCatalogReplaceRejectsInvalidSet(t *testing.T) {
	t.Parallel()
	c, err := NewCatalog(testQuestions())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if err := c.Replace(nil); err == nil {
		t.Fatal("expected error replacing with empty set")
	}
	if c.Len() != len(testQuestions()) {
		t.Fatalf("Len() = %d after failed replace, want %d", c.Len(), len(testQuestions()))
	}

	if err := c.Replace(testQuestions()[:1]); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d after replace, want 1", c.Len())
	}
}

func TestLoadQuestionsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	doc := `- id: q1
  category: Testing
  question: Does this load?
  correct_answer: "Yes"
  incorrect_answers:
    - "No"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write questions file: %v", err)
	}
	questions, err := LoadQuestionsFile(path)
	if err != nil {
		t.Fatalf("LoadQuestionsFile: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "q1" {
		t.Fatalf("unexpected questions: %+v", questions)
	}

	if _, err := LoadQuestionsFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("not a sequence"), 0o644); err != nil {
		t.Fatalf("write bad file: %v", err)
	}
	if _, err := LoadQuestionsFile(bad); err == nil {
		t.Fatal("expected error for malformed file")
	}
}
