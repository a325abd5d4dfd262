// Package session drives one quiz run: position, answers, progress and timing.
package session

import (
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type State int

const (
	InProgress State = iota
	Complete
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Clock returns the current time.
type Clock func() time.Time

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		e.now = clock
	}
}

// Engine is single-owner state; it is not safe for concurrent use.
//
// Transitions never fail. Indices are clamped, and the CanGoNext, CanGoPrev and
// CanSubmit guards are advisory: callers consult them before acting.
type Engine struct {
	questions []models.PublicQuestion
	now       Clock

	state   State
	current int
	answers []*int
	start   time.Time
	end     *time.Time
}

// New starts a session over a fixed question list. A different list needs a
// new Engine.
func New(questions []models.PublicQuestion, opts ...Option) *Engine {
	e := &Engine{
		questions: append([]models.PublicQuestion(nil), questions...),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ResetQuiz()
	return e
}

// ResetQuiz discards all progress and starts over at the first question.
func (e *Engine) ResetQuiz() {
	e.state = InProgress
	e.current = 0
	e.answers = nil
	e.start = e.now()
	e.end = nil
}

// AnswerQuestion records choice for the current question, replacing any earlier
// answer there. Answers are frozen once the session is complete.
func (e *Engine) AnswerQuestion(choice int) {
	if e.state == Complete || len(e.questions) == 0 {
		return
	}
	if len(e.answers) <= e.current {
		grown := make([]*int, e.current+1)
		copy(grown, e.answers)
		e.answers = grown
	}
	e.answers[e.current] = &choice
}

func (e *Engine) NextQuestion() {
	if e.current < len(e.questions)-1 {
		e.current++
	}
}

func (e *Engine) PrevQuestion() {
	if e.current > 0 {
		e.current--
	}
}

// CompleteQuiz ends the session and stamps the end time. Later calls are no-ops.
func (e *Engine) CompleteQuiz() {
	if e.state == Complete {
		return
	}
	end := e.now()
	e.end = &end
	e.state = Complete
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) IsComplete() bool {
	return e.state == Complete
}

func (e *Engine) Len() int {
	return len(e.questions)
}

func (e *Engine) CurrentIndex() int {
	return e.current
}

// Question returns the current question, or false for an empty quiz.
func (e *Engine) Question() (models.PublicQuestion, bool) {
	if len(e.questions) == 0 {
		return models.PublicQuestion{}, false
	}
	return e.questions[e.current], true
}

// Questions returns the question list in session order.
func (e *Engine) Questions() []models.PublicQuestion {
	return append([]models.PublicQuestion(nil), e.questions...)
}

// Answer returns the recorded answer at index i.
func (e *Engine) Answer(i int) (int, bool) {
	if i < 0 || i >= len(e.answers) || e.answers[i] == nil {
		return 0, false
	}
	return *e.answers[i], true
}

// Answers returns the recorded answers by position. Unanswered positions are
// nil and the slice is never longer than the question list.
func (e *Engine) Answers() []*int {
	out := make([]*int, len(e.answers))
	for i, a := range e.answers {
		if a != nil {
			v := *a
			out[i] = &v
		}
	}
	return out
}

// Progress is the percentage of the quiz reached, counting the current question.
func (e *Engine) Progress() float64 {
	if len(e.questions) == 0 {
		return 0
	}
	return 100 * float64(e.current+1) / float64(len(e.questions))
}

// TimeSpent is the elapsed time in whole seconds, up to the end time once
// complete.
func (e *Engine) TimeSpent() int {
	var end time.Time
	if e.end != nil {
		end = *e.end
	} else {
		end = e.now()
	}
	elapsed := end.Sub(e.start)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Second)
}

func (e *Engine) StartTime() time.Time {
	return e.start
}

// EndTime is set once the session is complete.
func (e *Engine) EndTime() (time.Time, bool) {
	if e.end == nil {
		return time.Time{}, false
	}
	return *e.end, true
}

func (e *Engine) CanGoNext() bool {
	_, answered := e.Answer(e.current)
	return answered && e.current < len(e.questions)-1
}

func (e *Engine) CanGoPrev() bool {
	return e.current > 0
}

func (e *Engine) CanSubmit() bool {
	_, answered := e.Answer(e.current)
	return answered && e.current == len(e.questions)-1
}
