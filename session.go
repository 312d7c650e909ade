package triviad

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/unicitynetwork/triviad/internal/clock"
)

// ErrNoActiveQuestion is returned when an answer check finds no outstanding
// question for the user.
var ErrNoActiveQuestion = errors.New("no active question")

// ActiveQuestion is the single outstanding question awaiting an answer for
// one user. Options holds the shuffled display order shown to the user.
type ActiveQuestion struct {
	Question  Question
	Options   []string
	CreatedAt time.Time
}

// SessionStore owns per-user active-question and streak state. At most one
// ActiveQuestion exists per user; entries older than the expiry window are
// treated as absent even before the sweeper removes them. All keys are
// normalized with NormalizeID so callers cannot split state across handle
// spellings.
type SessionStore struct {
	mu     sync.Mutex
	clock  clock.Clock
	expiry time.Duration
	active map[string]ActiveQuestion
	scores map[string]int
}

// NewSessionStore constructs a store with the given stale-question window.
func NewSessionStore(expiry time.Duration, clk clock.Clock) *SessionStore {
	if expiry <= 0 {
		expiry = DefaultQuestionExpiry
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &SessionStore{
		clock:  clk,
		expiry: expiry,
		active: make(map[string]ActiveQuestion),
		scores: make(map[string]int),
	}
}

// ActiveQuestion returns the user's outstanding question. Stale entries are
// deleted on read and reported as absent.
func (s *SessionStore) ActiveQuestion(userID string) (ActiveQuestion, bool) {
	key := NormalizeID(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.active[key]
	if !ok {
		return ActiveQuestion{}, false
	}
	if s.clock.Now().Sub(entry.CreatedAt) > s.expiry {
		delete(s.active, key)
		return ActiveQuestion{}, false
	}
	return entry, true
}

// SetActiveQuestion records the user's outstanding question, unconditionally
// replacing any previous entry.
func (s *SessionStore) SetActiveQuestion(userID string, q Question, options []string) {
	key := NormalizeID(userID)
	entry := ActiveQuestion{
		Question:  q,
		Options:   append([]string(nil), options...),
		CreatedAt: s.clock.Now(),
	}
	s.mu.Lock()
	s.active[key] = entry
	s.mu.Unlock()
}

// ClearActiveQuestion removes the user's outstanding question, if any.
func (s *SessionStore) ClearActiveQuestion(userID string) {
	key := NormalizeID(userID)
	s.mu.Lock()
	delete(s.active, key)
	s.mu.Unlock()
}

// Score returns the user's current streak, zero when unknown.
func (s *SessionStore) Score(userID string) int {
	key := NormalizeID(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[key]
}

// RecordAnswer applies one scoring transition and returns the streak as
// stored afterwards plus whether the win threshold was reached. Reaching the
// threshold reports awarded=true and resets the stored streak to zero in the
// same transition; any incorrect answer resets to zero.
func (s *SessionStore) RecordAnswer(userID string, correct bool, winThreshold int) (newScore int, awarded bool) {
	key := NormalizeID(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !correct {
		s.scores[key] = 0
		return 0, false
	}
	next := s.scores[key] + 1
	if winThreshold > 0 && next >= winThreshold {
		s.scores[key] = 0
		return 0, true
	}
	s.scores[key] = next
	return next, false
}

// SweepExpired removes every stale active question and reports how many
// entries were deleted.
func (s *SessionStore) SweepExpired() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.active {
		if now.Sub(entry.CreatedAt) > s.expiry {
			delete(s.active, key)
			removed++
		}
	}
	return removed
}

// Sizes reports the number of active questions and tracked scores, used for
// state operation logging.
func (s *SessionStore) Sizes() (questions, scores int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active), len(s.scores)
}

// ResolveAnswerInput maps a single-letter answer ("a", "B", " c ") onto the
// shown option at that alphabetic index. Anything else, including letters
// beyond the option bounds, is returned trimmed and otherwise verbatim.
func ResolveAnswerInput(raw string, options []string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if len(normalized) == 1 {
		index := int(normalized[0]) - 'a'
		if index >= 0 && index < len(options) {
			return options[index]
		}
	}
	return strings.TrimSpace(raw)
}

// AnswerMatches compares an answer against the canonical correct answer,
// case-insensitively and ignoring surrounding whitespace.
func AnswerMatches(answer, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(correct))
}
