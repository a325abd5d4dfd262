package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// ImportExportService moves questions and attempt history in and out of spreadsheets
type ImportExportService interface {
	ImportQuestions(ctx context.Context, subjectID uint, reader io.Reader, filename string) (*models.ImportResult, error)
	ExportQuestions(ctx context.Context, subjectID uint) ([]byte, error)
	ExportAttempts(ctx context.Context, subjectID uint) ([]byte, error)
}

var optionColumns = []string{"option_a", "option_b", "option_c", "option_d", "option_e", "option_f"}

var questionHeaders = []string{
	"Question", "Option A", "Option B", "Option C", "Option D", "Option E", "Option F",
	"Correct Answer", "Explanation", "Difficulty",
}

var attemptHeaders = []string{
	"Attempt ID", "User ID", "Score", "Correct Answers", "Total Questions", "Time Spent (seconds)", "Completed At",
}

type importExportService struct {
	deps Dependencies
	log  *ServiceLogger
}

func NewImportExportService(deps Dependencies) ImportExportService {
	return &importExportService{
		deps: deps,
		log:  NewServiceLogger(deps.Logger, "import_export"),
	}
}

// ===== IMPORT =====

// ImportQuestions reads a .csv or .xlsx sheet. Valid rows are stored in one batch;
// invalid rows are reported per row and skipped.
func (s *importExportService) ImportQuestions(ctx context.Context, subjectID uint, reader io.Reader, filename string) (result *models.ImportResult, err error) {
	done := s.log.Track(ctx, "import_questions", "subject")
	defer func() { done(subjectID, err) }()

	if err := ensureSubject(ctx, s.deps.Repo, subjectID); err != nil {
		return nil, err
	}

	var rows [][]string
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		rows, err = readCSV(reader)
	case ".xlsx":
		rows, err = readExcel(reader)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, NewValidationError("file", "must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[normalizeHeader(header)] = i
	}
	for _, col := range []string{"question", "option_a", "option_b", "correct_answer"} {
		if _, ok := headerMap[col]; !ok {
			return nil, NewValidationError("headers", "missing required column: "+col, col)
		}
	}

	result = &models.ImportResult{
		SubjectID: subjectID,
		TotalRows: len(rows) - 1,
		Status:    models.ImportProcessing,
	}

	var questions []*models.Question
	for i, row := range rows[1:] {
		question, rowErrors := s.parseRow(row, headerMap, i+2, subjectID)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
		} else {
			questions = append(questions, question)
			result.SuccessCount++
		}
		result.ProcessedRows++
	}

	if len(questions) > 0 {
		err := s.deps.Repo.WithTransaction(ctx, func(repo repositories.Repository) error {
			return repo.Question().CreateBatch(ctx, questions)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save imported questions: %w", err)
		}

		invalidateSubject(ctx, s.deps.Cache, s.deps.Logger, subjectID)
		for _, q := range questions {
			publishEvent(ctx, s.deps.Publisher, s.deps.Logger, events.NewEvent(events.EventQuestionCreated, events.QuestionCreatedEvent{
				QuestionID: q.ID,
				SubjectID:  subjectID,
				Source:     "import",
			}))
			result.Questions = append(result.Questions, *q)
		}
	}

	result.Status = models.ImportCompleted
	s.deps.Logger.InfoContext(ctx, "Question import completed",
		"subject_id", subjectID,
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)

	return result, nil
}

func (s *importExportService) parseRow(row []string, headerMap map[string]int, rowNum int, subjectID uint) (*models.Question, []models.ImportValidationError) {
	column := func(name string) string {
		if idx, ok := headerMap[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var errs []models.ImportValidationError

	var options []string
	gap := ""
	for _, col := range optionColumns {
		value := column(col)
		if value == "" {
			if gap == "" {
				gap = col
			}
			continue
		}
		if gap != "" {
			errs = append(errs, models.ImportValidationError{
				Row: rowNum, Column: gap, Message: "options must be contiguous",
			})
			break
		}
		options = append(options, value)
	}

	rawAnswer := column("correct_answer")
	correct, ok := parseAnswerIndex(rawAnswer)
	if !ok {
		errs = append(errs, models.ImportValidationError{
			Row: rowNum, Column: "correct_answer", Message: "must be a letter A-F or a 0-based index", Value: rawAnswer,
		})
	}

	difficulty := models.Difficulty(strings.ToLower(column("difficulty")))
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	question := &models.Question{
		SubjectID:     subjectID,
		Question:      column("question"),
		Options:       options,
		CorrectAnswer: correct,
		Difficulty:    difficulty,
	}
	if explanation := column("explanation"); explanation != "" {
		question.Explanation = &explanation
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if err := s.deps.Validator.Question().ValidateQuestion(question); err != nil {
		if ve, isVE := err.(ValidationErrors); isVE {
			for _, e := range ve {
				errs = append(errs, models.ImportValidationError{
					Row: rowNum, Column: e.Field, Message: e.Message, Value: fmt.Sprint(e.Value),
				})
			}
		} else {
			errs = append(errs, models.ImportValidationError{Row: rowNum, Message: err.Error()})
		}
		return nil, errs
	}

	return question, nil
}

// ===== EXPORT =====

func (s *importExportService) ExportQuestions(ctx context.Context, subjectID uint) ([]byte, error) {
	if err := ensureSubject(ctx, s.deps.Repo, subjectID); err != nil {
		return nil, err
	}
	questions, err := s.deps.Repo.Question().ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	rows := make([][]interface{}, 0, len(questions))
	for _, q := range questions {
		row := []interface{}{q.Question}
		for i := range optionColumns {
			if i < len(q.Options) {
				row = append(row, q.Options[i])
			} else {
				row = append(row, "")
			}
		}
		explanation := ""
		if q.Explanation != nil {
			explanation = *q.Explanation
		}
		row = append(row, answerLetter(q.CorrectAnswer), explanation, string(q.Difficulty))
		rows = append(rows, row)
	}

	return writeSheet("Questions", questionHeaders, rows)
}

func (s *importExportService) ExportAttempts(ctx context.Context, subjectID uint) ([]byte, error) {
	if err := ensureSubject(ctx, s.deps.Repo, subjectID); err != nil {
		return nil, err
	}
	attempts, err := s.deps.Repo.Attempt().ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	rows := make([][]interface{}, 0, len(attempts))
	for _, a := range attempts {
		var userID interface{} = ""
		if a.UserID != nil {
			userID = *a.UserID
		}
		rows = append(rows, []interface{}{
			a.ID, userID, a.Score, a.CorrectAnswers, a.TotalQuestions, a.TimeSpent,
			a.CompletedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}

	return writeSheet("Attempts", attemptHeaders, rows)
}

// ===== HELPERS =====

func readCSV(reader io.Reader) ([][]string, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, NewValidationError("file", "unreadable CSV: "+err.Error(), nil)
	}
	return rows, nil
}

func readExcel(reader io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, NewValidationError("file", "unreadable Excel file: "+err.Error(), nil)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return rows, nil
}

func writeSheet(sheetName string, headers []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeHeader(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

// parseAnswerIndex accepts a letter (A-F) or a 0-based index.
func parseAnswerIndex(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 1 {
		letter := strings.ToUpper(raw)[0]
		if letter >= 'A' && letter <= 'F' {
			return int(letter - 'A'), true
		}
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func answerLetter(idx int) string {
	if idx < 0 || idx >= len(optionColumns) {
		return strconv.Itoa(idx)
	}
	return string(rune('A' + idx))
}
