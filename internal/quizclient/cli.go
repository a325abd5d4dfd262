package quizclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/offline"
	"github.com/SAP-F-2025/quiz-service/internal/session"
)

// errAbandoned ends a play loop without submitting.
var errAbandoned = errors.New("quiz abandoned")

// Run reads commands from in until quit or EOF.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "PrepQuiz Pro")
	if !r.coordinator.HasCache() {
		fmt.Fprintln(out, "Local cache unavailable; running online only.")
	}
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		switch command {
		case "help":
			printHelp(out)
		case "quit", "exit":
			return nil
		case "subjects":
			r.runSubjects(ctx, out)
		case "play":
			subjectID, ok := parseSubjectArg(out, args, "play")
			if !ok {
				continue
			}
			if err := r.runPlay(ctx, reader, out, subjectID); err != nil {
				if errors.Is(err, io.EOF) {
					fmt.Fprintln(out)
					return nil
				}
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "history":
			subjectID, ok := parseSubjectArg(out, args, "history")
			if !ok {
				continue
			}
			if err := r.runHistory(ctx, out, subjectID); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "sync":
			if err := r.runSync(ctx, out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

func (r *Runner) runSubjects(ctx context.Context, out io.Writer) {
	res := r.coordinator.Subjects(ctx)
	printSourceNotice(out, res.Source)

	if len(res.Data) == 0 {
		fmt.Fprintln(out, "No subjects.")
		return
	}
	for _, s := range res.Data {
		fmt.Fprintf(out, "%d. %s %s (%d questions, best %d%%)\n", s.ID, s.Emoji, s.Name, s.QuestionCount, s.BestScore)
	}
}

func (r *Runner) runPlay(ctx context.Context, reader *bufio.Reader, out io.Writer, subjectID uint) error {
	if subject := r.coordinator.Subject(ctx, subjectID).Data; subject != nil {
		fmt.Fprintf(out, "%s %s: %s\n", subject.Emoji, subject.Name, subject.Description)
	}

	engine, source := r.Start(ctx, subjectID)
	printSourceNotice(out, source)

	if engine.Len() == 0 {
		fmt.Fprintf(out, "No questions available for subject %d.\n", subjectID)
		return nil
	}

	for {
		if err := r.playSession(reader, out, engine); err != nil {
			if errors.Is(err, errAbandoned) {
				fmt.Fprintln(out, "Quiz abandoned. Nothing was saved.")
				return nil
			}
			return err
		}

		result, err := r.Submit(ctx, subjectID, engine)
		if err != nil {
			return err
		}
		printResult(out, engine.Questions(), result)

		retry, err := promptYesNo(reader, out, "Try again? (yes/no): ")
		if err != nil {
			return err
		}
		if !retry {
			return nil
		}
		engine.ResetQuiz()
	}
}

// playSession walks the engine until the user submits. Letters answer the
// current question; n, p, s and q move next, move back, submit and abandon.
func (r *Runner) playSession(reader *bufio.Reader, out io.Writer, engine *session.Engine) error {
	invalid := 0
	for {
		question, _ := engine.Question()
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Question %d of %d (%.0f%%)\n", engine.CurrentIndex()+1, engine.Len(), engine.Progress())
		printQuestion(out, question)
		if chosen, ok := engine.Answer(engine.CurrentIndex()); ok {
			fmt.Fprintf(out, "Current answer: %s\n", optionLetter(chosen))
		}

		fmt.Fprintf(out, "Answer (A-%c), n=next, p=prev, s=submit, q=quit: ", optionLetter(len(question.Options)-1)[0])
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		input := strings.ToUpper(strings.TrimSpace(line))

		switch input {
		case "N":
			engine.NextQuestion()
			continue
		case "P":
			if engine.CanGoPrev() {
				engine.PrevQuestion()
			}
			continue
		case "S":
			return nil
		case "Q":
			return errAbandoned
		}

		choice, ok := parseChoice(input, len(question.Options))
		if !ok {
			invalid++
			if invalid >= r.cfg.MaxInvalidAnswers {
				fmt.Fprintln(out, "Skipping question after multiple invalid responses.")
				invalid = 0
				if engine.CurrentIndex() == engine.Len()-1 {
					return nil
				}
				engine.NextQuestion()
				continue
			}
			fmt.Fprintf(out, "Invalid input. Attempts remaining: %d\n", r.cfg.MaxInvalidAnswers-invalid)
			continue
		}
		invalid = 0

		engine.AnswerQuestion(choice)
		switch {
		case engine.CanGoNext():
			engine.NextQuestion()
		case engine.CanSubmit():
			return nil
		}
	}
}

func (r *Runner) runHistory(ctx context.Context, out io.Writer, subjectID uint) error {
	if !r.coordinator.HasCache() {
		fmt.Fprintln(out, "No local history: cache unavailable.")
		return nil
	}

	attempts, err := r.History(ctx, subjectID)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Fprintf(out, "No attempts for subject %d.\n", subjectID)
		return nil
	}

	fmt.Fprintf(out, "Attempts for subject %d:\n", subjectID)
	for _, a := range attempts {
		if a.Degraded {
			fmt.Fprintf(out, "#%d ungraded (offline) %d questions, %ds, %s\n",
				a.ID, a.TotalQuestions, a.TimeSpent, a.CompletedAt.Format(time.RFC3339))
			continue
		}
		fmt.Fprintf(out, "#%d score=%d%% %d/%d, %ds, %s\n",
			a.ID, a.Score, a.CorrectAnswers, a.TotalQuestions, a.TimeSpent, a.CompletedAt.Format(time.RFC3339))
	}
	return nil
}

func (r *Runner) runSync(ctx context.Context, out io.Writer) error {
	report, err := r.coordinator.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Fprintf(out, "Synced %d subjects and %d questions.\n", report.Subjects, report.Questions)
	if len(report.Failed) > 0 {
		fmt.Fprintf(out, "Could not refresh subjects: %v\n", report.Failed)
	}
	if last, ok, err := r.coordinator.LastSync(ctx); err == nil && ok {
		fmt.Fprintf(out, "Last sync: %s\n", last.Format(time.RFC3339))
	}
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  subjects")
	fmt.Fprintln(out, "  play <subject_id>")
	fmt.Fprintln(out, "  history <subject_id>")
	fmt.Fprintln(out, "  sync")
	fmt.Fprintln(out, "  quit")
}

func printSourceNotice(out io.Writer, source offline.Source) {
	switch source {
	case offline.SourceCache:
		fmt.Fprintln(out, "Offline: showing cached data.")
	case offline.SourceFallback:
		fmt.Fprintln(out, "Offline: showing bundled data.")
	}
}

func printQuestion(out io.Writer, question models.PublicQuestion) {
	fmt.Fprintf(out, "%s\n\n", question.Question)
	for i, option := range question.Options {
		fmt.Fprintf(out, "%s. %s\n", optionLetter(i), option)
	}
	fmt.Fprintln(out)
}

func printResult(out io.Writer, questions []models.PublicQuestion, result *Result) {
	fmt.Fprintln(out)
	if result.Degraded {
		fmt.Fprintln(out, "Grading is unavailable offline. Your answers were saved on this device.")
		fmt.Fprintf(out, "Time: %ds\n", result.TimeSpent)
		return
	}

	fmt.Fprintf(out, "Score: %d%% (%d/%d correct) in %ds\n", result.Score, result.CorrectCount, result.TotalQuestions, result.TimeSpent)
	for i, res := range result.Results {
		text := fmt.Sprintf("question %d", res.QuestionID)
		if i < len(questions) {
			text = questions[i].Question
		}
		if res.Correct {
			fmt.Fprintf(out, "  ✓ %s\n", text)
		} else {
			fmt.Fprintf(out, "  ✗ %s (correct: %s)\n", text, optionLetter(res.CorrectAnswer))
		}
		if res.Explanation != nil && strings.TrimSpace(*res.Explanation) != "" {
			fmt.Fprintf(out, "    %s\n", *res.Explanation)
		}
	}
}

func parseSubjectArg(out io.Writer, args []string, command string) (uint, bool) {
	if len(args) != 2 {
		fmt.Fprintf(out, "usage: %s <subject_id>\n", command)
		return 0, false
	}
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil || id == 0 {
		fmt.Fprintln(out, "subject id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// parseChoice reads an option letter, already upper-cased.
func parseChoice(input string, optionCount int) (int, bool) {
	if len(input) != 1 || optionCount < 1 {
		return 0, false
	}
	idx := int(input[0]) - 'A'
	if idx < 0 || idx >= optionCount {
		return 0, false
	}
	return idx, true
}

func optionLetter(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}
