package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/learnforge/course-service/internal/validator"
)

func (f *serviceFixture) importService() ImportExportService {
	slogLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewImportExportService(f.repo, f.db, slogLogger, validator.New())
}

// buildImportSheet writes an xlsx workbook with the standard question
// import header and the given rows.
func buildImportSheet(t *testing.T, rows [][]interface{}) io.Reader {
	t.Helper()

	workbook := excelize.NewFile()
	defer workbook.Close()
	sheet := workbook.GetSheetName(0)

	header := []interface{}{"question_num", "name", "description", "prompt", "choices", "correct_answer"}
	require.NoError(t, workbook.SetSheetRow(sheet, "A1", &header))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, workbook.SetSheetRow(sheet, cell, &row))
	}

	buf, err := workbook.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestImportQuestions(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.importService()
	ctx := context.Background()

	file := buildImportSheet(t, [][]interface{}{
		{1, "Capitals", "intro", "Capital of France?", "Paris|London", "Paris"},
		{2, "Capitals", "", "Capital of Germany?", "Berlin|Munich", "Berlin"},
		{0, "bad num", "", "prompt", "a|b", "a"},
		{3, "", "", "missing name", "a|b", "a"},
		{4, "bad answer", "", "prompt", "a|b", "c"},
	})

	result, err := svc.ImportQuestions(ctx, f.lesson.ID, file, f.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 3, result.Skipped)
	require.Len(t, result.Errors, 3)
	for _, e := range result.Errors {
		assert.True(t, strings.HasPrefix(e, "row "), "errors name the offending row: %s", e)
	}

	questions, err := f.questionService.GetByLesson(ctx, f.lesson.ID)
	require.NoError(t, err)
	// One seeded question plus the two imported rows
	assert.Len(t, questions, 3)
}

func TestImportQuestionsErrors(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.importService()
	ctx := context.Background()

	t.Run("student may not import", func(t *testing.T) {
		file := buildImportSheet(t, [][]interface{}{{1, "q", "", "p", "a|b", "a"}})
		_, err := svc.ImportQuestions(ctx, f.lesson.ID, file, f.student.ID)
		var permissionError *PermissionError
		assert.ErrorAs(t, err, &permissionError)
	})

	t.Run("not an xlsx file", func(t *testing.T) {
		_, err := svc.ImportQuestions(ctx, f.lesson.ID, strings.NewReader("plain text"), f.teacher.ID)
		var businessRuleError *BusinessRuleError
		require.ErrorAs(t, err, &businessRuleError)
		assert.Equal(t, "import_format", businessRuleError.Rule)
	})

	t.Run("header only", func(t *testing.T) {
		file := buildImportSheet(t, nil)
		_, err := svc.ImportQuestions(ctx, f.lesson.ID, file, f.teacher.ID)
		var businessRuleError *BusinessRuleError
		assert.ErrorAs(t, err, &businessRuleError)
	})
}

func TestExportProgressReport(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.importService()
	ctx := context.Background()

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "Paris"}},
	})
	require.NoError(t, err)

	data, err := svc.ExportProgressReport(ctx, f.course.ID, f.teacher.ID)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Progress")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one enrollment-lesson row")
	assert.Equal(t, "User Email", rows[0][0])
	assert.Equal(t, f.student.Email, rows[1][0])
	assert.Equal(t, f.lesson.Name, rows[1][1])
	assert.Equal(t, "1", rows[1][2], "one answered question")
	assert.Equal(t, "TRUE", rows[1][4])

	t.Run("student may not export", func(t *testing.T) {
		_, err := svc.ExportProgressReport(ctx, f.course.ID, f.student.ID)
		var permissionError *PermissionError
		assert.ErrorAs(t, err, &permissionError)
	})
}
