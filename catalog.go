package triviad

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultQuestionsYAML []byte

// ErrNoQuestions is returned when no question matches the requested criteria.
var ErrNoQuestions = errors.New("no questions found for criteria")

// Question is one immutable catalog entry. IncorrectAnswers keeps the
// authoring order; display order comes from ShuffleOptions.
type Question struct {
	ID               string   `yaml:"id"`
	Category         string   `yaml:"category"`
	Question         string   `yaml:"question"`
	CorrectAnswer    string   `yaml:"correct_answer"`
	IncorrectAnswers []string `yaml:"incorrect_answers"`
}

// Rand is the randomness source used for question selection and option
// shuffling. *rand.Rand from math/rand/v2 satisfies it, which keeps draws
// deterministic under test.
type Rand interface {
	IntN(n int) int
}

// SystemRand draws from the process-global PRNG and is safe for concurrent use.
type SystemRand struct{}

// IntN returns a uniform value in [0, n).
func (SystemRand) IntN(n int) int { return rand.IntN(n) }

// Catalog holds the question set. Replace swaps the whole set atomically,
// which is how the file watcher applies reloads.
type Catalog struct {
	mu        sync.RWMutex
	questions []Question
}

// NewCatalog validates the supplied questions and builds a catalog.
func NewCatalog(questions []Question) (*Catalog, error) {
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}
	c := &Catalog{}
	c.questions = append(c.questions, questions...)
	return c, nil
}

// DefaultCatalog returns the embedded question set. The embedded document is
// part of the build, so a parse failure is a programmer error.
func DefaultCatalog() *Catalog {
	var questions []Question
	if err := yaml.Unmarshal(defaultQuestionsYAML, &questions); err != nil {
		panic(fmt.Sprintf("embedded questions.yaml is invalid: %v", err))
	}
	c, err := NewCatalog(questions)
	if err != nil {
		panic(fmt.Sprintf("embedded questions.yaml is invalid: %v", err))
	}
	return c
}

// LoadQuestionsFile reads and validates an operator-supplied catalog file.
func LoadQuestionsFile(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var questions []Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse questions file %s: %w", path, err)
	}
	if err := validateQuestions(questions); err != nil {
		return nil, fmt.Errorf("questions file %s: %w", path, err)
	}
	return questions, nil
}

func validateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return errors.New("catalog must contain at least one question")
	}
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("question %d: id is required", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}
		if strings.TrimSpace(q.Category) == "" {
			return fmt.Errorf("question %s: category is required", q.ID)
		}
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("question %s: question text is required", q.ID)
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return fmt.Errorf("question %s: correct answer is required", q.ID)
		}
		if len(q.IncorrectAnswers) == 0 {
			return fmt.Errorf("question %s: at least one incorrect answer is required", q.ID)
		}
	}
	return nil
}

// Replace swaps the question set for a validated replacement.
func (c *Catalog) Replace(questions []Question) error {
	if err := validateQuestions(questions); err != nil {
		return err
	}
	fresh := make([]Question, len(questions))
	copy(fresh, questions)
	c.mu.Lock()
	c.questions = fresh
	c.mu.Unlock()
	return nil
}

// Len reports the number of questions in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.questions)
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	var categories []string
	for _, q := range c.questions {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		categories = append(categories, q.Category)
	}
	return categories
}

// SelectRandom draws a uniformly random question, filtered to the given
// category when non-empty (case-insensitive exact match). Returns
// ErrNoQuestions when the filtered set is empty.
func (c *Catalog) SelectRandom(category string, rng Rand) (Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	filtered := c.questions
	if strings.TrimSpace(category) != "" {
		filtered = nil
		for _, q := range c.questions {
			if strings.EqualFold(q.Category, category) {
				filtered = append(filtered, q)
			}
		}
	}
	if len(filtered) == 0 {
		return Question{}, ErrNoQuestions
	}
	return filtered[rng.IntN(len(filtered))], nil
}

// ShuffleOptions returns the question's answer options in a fresh random
// permutation (Fisher-Yates). The correct answer appears exactly once and
// the question's own slices are left untouched.
func ShuffleOptions(q Question, rng Rand) []string {
	options := make([]string, 0, len(q.IncorrectAnswers)+1)
	options = append(options, q.CorrectAnswer)
	options = append(options, q.IncorrectAnswers...)
	for i := len(options) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		options[i], options[j] = options[j], options[i]
	}
	return options
}
