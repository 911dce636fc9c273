package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
)

// ExportService renders exam results as downloadable documents and imports
// question sets from spreadsheets.
type ExportService interface {
	ResultsXLSX(ctx context.Context, examID uint) ([]byte, string, error)
	SubmissionPDF(ctx context.Context, submissionID uint) ([]byte, string, error)
	ImportQuestions(ctx context.Context, examID uint, file *multipart.FileHeader) (dto.QuestionImportResult, error)
}

type exportService struct {
	results   ResultService
	questions QuestionService
	logger    zerolog.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(results ResultService, questions QuestionService, logger zerolog.Logger) ExportService {
	return &exportService{
		results:   results,
		questions: questions,
		logger:    logger.With().Str("component", "export_service").Logger(),
	}
}

// ResultsXLSX renders every attempt of one exam as an xlsx workbook.
func (s *exportService) ResultsXLSX(ctx context.Context, examID uint) ([]byte, string, error) {
	results, err := s.results.ExamResults(ctx, examID)
	if err != nil {
		return nil, "", err
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	headers := []string{"Student", "Username", "Status", "Score", "Violations", "Started At", "Submitted At"}
	for col, header := range headers {
		axis, _ := excelize.CoordinatesToCellName(col+1, 1)
		workbook.SetCellValue(sheet, axis, header)
	}

	for i, submission := range results.Submissions {
		score := ""
		if submission.Score != nil {
			score = fmt.Sprintf("%.0f", *submission.Score)
		}
		submittedAt := ""
		if submission.SubmittedAt != nil {
			submittedAt = submission.SubmittedAt.Format("2006-01-02 15:04")
		}

		values := []interface{}{
			submission.Student.FullName,
			submission.Student.Username,
			submission.Status,
			score,
			submission.Violations,
			submission.StartedAt.Format("2006-01-02 15:04"),
			submittedAt,
		}
		for col, value := range values {
			axis, _ := excelize.CoordinatesToCellName(col+1, i+2)
			workbook.SetCellValue(sheet, axis, value)
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("results-%s.xlsx", slugify(results.Exam.Title))
	return buf.Bytes(), filename, nil
}

// SubmissionPDF renders one attempt's answer review as a printable PDF.
func (s *exportService) SubmissionPDF(ctx context.Context, submissionID uint) ([]byte, string, error) {
	detail, err := s.results.SubmissionDetail(ctx, submissionID)
	if err != nil {
		return nil, "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, detail.Submission.Exam.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Student: %s (%s)", detail.Submission.Student.FullName, detail.Submission.Student.Username), "", 1, "L", false, 0, "")
	score := "pending"
	if detail.Submission.Score != nil {
		score = fmt.Sprintf("%.0f", *detail.Submission.Score)
	}
	pdf.CellFormat(0, 7, fmt.Sprintf("Score: %s    Correct: %d/%d    Violations: %d", score, detail.CorrectAnswers, detail.TotalQuestions, detail.Submission.Violations), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for i, answer := range detail.Answers {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, stripTags(answer.QuestionContent)), "", "L", false)

		pdf.SetFont("Helvetica", "", 10)
		switch {
		case answer.NeedsGrading:
			text := answer.EssayText
			if text == "" {
				text = "(no answer)"
			}
			pdf.MultiCell(0, 5, "Answer: "+text, "", "L", false)
			pdf.MultiCell(0, 5, "Needs manual grading", "", "L", false)
		case answer.ChosenOptionID == nil:
			pdf.MultiCell(0, 5, "Answer: (no answer)", "", "L", false)
		default:
			verdict := "wrong"
			if answer.IsCorrect != nil && *answer.IsCorrect {
				verdict = "correct"
			}
			pdf.MultiCell(0, 5, fmt.Sprintf("Answer: %s (%s)", stripTags(answer.ChosenContent), verdict), "", "L", false)
			if verdict == "wrong" {
				pdf.MultiCell(0, 5, "Correct: "+stripTags(answer.CorrectContent), "", "L", false)
			}
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("submission-%d.pdf", submissionID)
	return buf.Bytes(), filename, nil
}

// ImportQuestions appends questions from an xlsx sheet to the exam. Each
// row carries the content, the type, the points, up to five options and
// the letter of the correct one.
func (s *exportService) ImportQuestions(ctx context.Context, examID uint, file *multipart.FileHeader) (dto.QuestionImportResult, error) {
	rows, err := readSheet(file)
	if err != nil {
		return dto.QuestionImportResult{}, err
	}

	inputs := make([]dto.QuestionInput, 0, len(rows))
	for i, row := range rows {
		line := i + 2

		content := cell(row, 0)
		if content == "" {
			continue
		}

		qType := strings.ToLower(cell(row, 1))
		if qType == "" {
			qType = models.QuestionTypePG
		}

		input := dto.QuestionInput{
			Content: content,
			Type:    qType,
		}
		fmt.Sscanf(cell(row, 2), "%d", &input.Points)

		if qType == models.QuestionTypePG {
			correct := strings.ToUpper(cell(row, 8))
			for optIdx := 0; optIdx < 5; optIdx++ {
				optionContent := cell(row, 3+optIdx)
				if optionContent == "" {
					continue
				}
				letter := string(rune('A' + optIdx))
				input.Options = append(input.Options, dto.OptionInput{
					Content:   optionContent,
					IsCorrect: letter == correct,
				})
			}
			if len(input.Options) < 2 {
				return dto.QuestionImportResult{}, fmt.Errorf("row %d: %w", line, ErrMalformedQuestion)
			}
		}

		inputs = append(inputs, input)
	}

	if len(inputs) == 0 {
		return dto.QuestionImportResult{}, ErrEmptySpreadsheet
	}

	stored, err := s.questions.Append(ctx, examID, inputs)
	if err != nil {
		return dto.QuestionImportResult{}, err
	}

	s.logger.Info().Uint("exam_id", examID).Int("imported", len(inputs)).Msg("questions imported")

	return dto.QuestionImportResult{Imported: len(inputs), Questions: stored}, nil
}

// stripTags flattens sanitized HTML content into plain text for PDF output.
func stripTags(content string) string {
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
