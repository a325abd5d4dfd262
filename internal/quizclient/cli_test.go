package quizclient

import (
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/remote"
	"github.com/stretchr/testify/assert"
)

func TestRunListsSubjects(t *testing.T) {
	tc := newTestClient(t, true)

	out := tc.run(t, "subjects\nquit\n")
	assert.Contains(t, out, "1. ⚡ JavaScript (5 questions, best 0%)")
	assert.Contains(t, out, "2. ⚛️ React (2 questions, best 100%)")
	assert.NotContains(t, out, "Offline")
}

func TestRunOfflineUsesBundledData(t *testing.T) {
	tc := newTestClient(t, true)
	tc.remote.err = remote.ErrNetwork
	tc.grader.err = remote.ErrNetwork

	out := tc.run(t, "subjects\nplay 1\nA\nC\nC\nA\nB\nno\nhistory 1\nquit\n")
	assert.Contains(t, out, "Offline: showing bundled data.")
	assert.Contains(t, out, "Question 5 of 5 (100%)")
	assert.Contains(t, out, "Grading is unavailable offline.")
	assert.Contains(t, out, "ungraded (offline) 5 questions")
}

func TestRunPlayGraded(t *testing.T) {
	tc := newTestClient(t, true)

	out := tc.run(t, "play 2\nA\nA\nno\nhistory 2\nquit\n")
	assert.Contains(t, out, "Question 1 of 2 (50%)")
	assert.Contains(t, out, "Score: 50% (1/2 correct)")
	assert.Contains(t, out, "✓ What is JSX?")
	assert.Contains(t, out, "✗ What does useState return? (correct: B)")
	assert.Contains(t, out, "#1 score=50% 1/2")
}

func TestRunPlayRetryResetsSession(t *testing.T) {
	tc := newTestClient(t, true)

	out := tc.run(t, "play 2\nA\nA\nyes\nA\nB\nno\nquit\n")
	assert.Contains(t, out, "Score: 50% (1/2 correct)")
	assert.Contains(t, out, "Score: 100% (2/2 correct)")
	assert.Len(t, tc.grader.requests, 2)
}

func TestRunPlayNavigation(t *testing.T) {
	tc := newTestClient(t, true)

	out := tc.run(t, "play 2\nn\np\nB\np\nCurrent\nC\nA\nno\nquit\n")
	assert.Contains(t, out, "Current answer: B")
	assert.Contains(t, out, "Invalid input. Attempts remaining: 2")

	req := tc.grader.requests[0]
	assert.Equal(t, 2, *req.Answers[0])
	assert.Equal(t, 0, *req.Answers[1])
}

func TestRunPlayForcedSubmit(t *testing.T) {
	tc := newTestClient(t, true)

	out := tc.run(t, "play 2\nB\ns\nno\nquit\n")
	assert.Contains(t, out, "Score: 0% (0/2 correct)")

	req := tc.grader.requests[0]
	assert.Len(t, req.Answers, 1)
	assert.Equal(t, 1, *req.Answers[0])
}

func TestRunPlayAbandon(t *testing.T) {
	tc := newTestClient(t, true)

	out := tc.run(t, "play 2\nB\nq\nhistory 2\nquit\n")
	assert.Contains(t, out, "Quiz abandoned. Nothing was saved.")
	assert.Contains(t, out, "No attempts for subject 2.")
	assert.Empty(t, tc.grader.requests)
}

func TestRunPlayEmptySubject(t *testing.T) {
	tc := newTestClient(t, true)

	out := tc.run(t, "play 9\nquit\n")
	assert.Contains(t, out, "No questions available for subject 9.")
}

func TestRunSync(t *testing.T) {
	tc := newTestClient(t, true)

	out := tc.run(t, "sync\nquit\n")
	assert.Contains(t, out, "Synced 2 subjects and 2 questions.")
	assert.Contains(t, out, "Last sync: ")

	tc.remote.err = remote.ErrNetwork
	out = tc.run(t, "sync\nplay 2\nq\nquit\n")
	assert.Contains(t, out, "error: sync failed")
	assert.Contains(t, out, "Offline: showing cached data.")
	assert.Contains(t, out, "What is JSX?")
}

func TestRunWithoutCache(t *testing.T) {
	tc := newTestClient(t, false)

	out := tc.run(t, "history 2\nquit\n")
	assert.Contains(t, out, "Local cache unavailable; running online only.")
	assert.Contains(t, out, "No local history: cache unavailable.")
}

func TestRunUsageAndEOF(t *testing.T) {
	tc := newTestClient(t, true)

	out := tc.run(t, "play\nplay x\nhistory 0\nbogus\n")
	assert.Contains(t, out, "usage: play <subject_id>")
	assert.Contains(t, out, "subject id must be a positive integer")
	assert.Contains(t, out, "unknown command. type 'help' for usage.")
}

func TestParseChoice(t *testing.T) {
	cases := []struct {
		input   string
		options int
		want    int
		ok      bool
	}{
		{"A", 4, 0, true},
		{"D", 4, 3, true},
		{"E", 4, 0, false},
		{"AB", 4, 0, false},
		{"", 4, 0, false},
		{"1", 4, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseChoice(tc.input, tc.options)
		assert.Equal(t, tc.ok, ok, tc.input)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.input)
		}
	}
}
