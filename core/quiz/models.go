package quiz

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/enghaven/portal/core"
)

// Defaults applied when the admin leaves a field empty or enters garbage.
const (
	DefaultTimeLimit = 600 // seconds
	DefaultMaxTries  = 3
)

type Question struct {
	Prompt  string   `json:"prompt"`
	Answer  string   `json:"answer"`
	Options []string `json:"options,omitempty"`
}

// Quiz belongs to a batch. TimeLimit and MaxTries are advisory: they are shown to the
// student but not enforced when submitting.
type Quiz struct {
	ID        string     `json:"id"`
	BatchID   string     `json:"batchId"`
	Title     string     `json:"title"`
	TimeLimit int        `json:"timeLimit"`
	MaxTries  int        `json:"maxTries"`
	Questions []Question `json:"questions"`
}

// PublicQuestion is a Question without its answer.
type PublicQuestion struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

// PublicQuiz is what a student gets when taking a Quiz.
type PublicQuiz struct {
	ID        string           `json:"id"`
	BatchID   string           `json:"batchId"`
	Title     string           `json:"title"`
	TimeLimit int              `json:"timeLimit"`
	MaxTries  int              `json:"maxTries"`
	Questions []PublicQuestion `json:"questions"`
}

func (q Quiz) Public() PublicQuiz {
	pq := PublicQuiz{
		ID:        q.ID,
		BatchID:   q.BatchID,
		Title:     q.Title,
		TimeLimit: q.TimeLimit,
		MaxTries:  q.MaxTries,
		Questions: make([]PublicQuestion, 0, len(q.Questions)),
	}
	for _, qs := range q.Questions {
		pq.Questions = append(pq.Questions, PublicQuestion{Prompt: qs.Prompt, Options: qs.Options})
	}
	return pq
}

// Result is one scored attempt. There is no limit on attempts per (quiz, user).
type Result struct {
	ID     string    `json:"id"`
	QuizID string    `json:"quizId"`
	UserID string    `json:"userId"`
	Score  int       `json:"score"`
	Total  int       `json:"total"`
	At     time.Time `json:"at"`
}

// NewQuiz is the admin's quiz form. Questions is a JSON array of Question.
type NewQuiz struct {
	BatchID   string `json:"batchId" form:"batchId"`
	Title     string `json:"title" form:"title"`
	TimeLimit string `json:"timeLimit" form:"timeLimit"`
	MaxTries  string `json:"maxTries" form:"maxTries"`
	Questions string `json:"questions" form:"questions"`
}

func (nq *NewQuiz) Clean() {
	nq.BatchID = core.CleanString(nq.BatchID)
	nq.Title = core.CleanString(nq.Title)
}

// ParseError reports a questions payload that is not a JSON array of questions.
type ParseError struct {
	Err error
}

func (err ParseError) Error() string {
	return "invalid questions: " + err.Err.Error()
}

func (err ParseError) Unwrap() error { return err.Err }

// ParseQuestions decodes a JSON array of questions. Blank input is an empty array.
func ParseQuestions(raw string) ([]Question, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "[]"
	}
	var qs []Question
	if err := json.Unmarshal([]byte(raw), &qs); err != nil {
		return nil, &ParseError{Err: err}
	}
	if qs == nil {
		qs = make([]Question, 0)
	}
	return qs, nil
}

// QuestionsPolicy decides what happens to a questions payload that fails to parse.
type QuestionsPolicy int

const (
	// Lenient replaces unparsable questions with an empty list.
	Lenient QuestionsPolicy = iota
	// Strict rejects them with a validation error on "questions".
	Strict
)

func PolicyFor(strict bool) QuestionsPolicy {
	if strict {
		return Strict
	}
	return Lenient
}

func (p QuestionsPolicy) Apply(qs []Question, err error) ([]Question, error) {
	if err == nil {
		return qs, nil
	}
	if p == Strict {
		return nil, core.NewValidationError(err, core.FieldError{Field: "questions", Error: err.Error()})
	}
	return make([]Question, 0), nil
}

// parseInt returns the integer value of s, or def if s is blank or not an integer.
func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// Score counts the answers matching their question's answer, ignoring case and surrounding blanks.
// answers is keyed by "q{index}".
func Score(questions []Question, answers map[string]string) int {
	var score int
	for i, q := range questions {
		given := answers["q"+strconv.Itoa(i)]
		if normalize(given) == normalize(q.Answer) {
			score++
		}
	}
	return score
}

func normalize(s string) string {
	return core.CleanString(s, true /* lower */)
}
