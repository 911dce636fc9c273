package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

// Spreadsheet errors shared by the roster and question importers.
var (
	// ErrNotSpreadsheet indicates the uploaded file is not an xlsx workbook.
	ErrNotSpreadsheet = errors.New("uploaded file is not an xlsx spreadsheet")
	// ErrEmptySpreadsheet indicates the workbook has no data rows.
	ErrEmptySpreadsheet = errors.New("spreadsheet contains no data rows")
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RosterService bulk-manages classroom rosters via spreadsheets: importing
// student accounts and exporting the current roster.
type RosterService interface {
	ImportStudents(ctx context.Context, classroomID uint, file *multipart.FileHeader) (dto.RosterImportResult, error)
	ExportStudents(ctx context.Context, classroomID uint) ([]byte, string, error)
}

type rosterService struct {
	profiles   repository.ProfileRepository
	classrooms repository.ClassroomRepository
	logger     zerolog.Logger
}

// NewRosterService constructs a RosterService instance.
func NewRosterService(profiles repository.ProfileRepository, classrooms repository.ClassroomRepository, logger zerolog.Logger) RosterService {
	return &rosterService{
		profiles:   profiles,
		classrooms: classrooms,
		logger:     logger.With().Str("component", "roster_service").Logger(),
	}
}

// ImportStudents reads an xlsx roster (full name, username, optional
// password) and creates the missing student accounts. Rows whose username
// already exists are skipped, so re-uploading the same sheet is harmless.
// A blank password column falls back to the username as the initial
// password; either way the stored value is bcrypt-hashed.
func (s *rosterService) ImportStudents(ctx context.Context, classroomID uint, file *multipart.FileHeader) (dto.RosterImportResult, error) {
	if _, err := s.classrooms.GetByID(ctx, classroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RosterImportResult{}, ErrClassroomNotFound
		}
		return dto.RosterImportResult{}, err
	}

	rows, err := readSheet(file)
	if err != nil {
		return dto.RosterImportResult{}, err
	}

	result := dto.RosterImportResult{Errors: []string{}}
	batch := make([]models.Profile, 0, len(rows))

	for i, row := range rows {
		line := i + 2 // 1-based, after the header row

		fullName := cell(row, 0)
		username := strings.ToLower(cell(row, 1))
		password := cell(row, 2)

		if fullName == "" || username == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: full name and username are required", line))
			continue
		}

		if _, err := s.profiles.GetByUsername(ctx, username); err == nil {
			result.Skipped++
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RosterImportResult{}, err
		}

		if password == "" {
			password = username
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return dto.RosterImportResult{}, err
		}

		batch = append(batch, models.Profile{
			FullName:    fullName,
			Username:    username,
			Password:    string(hashed),
			Role:        models.RoleStudent,
			ClassroomID: &classroomID,
		})
	}

	if len(batch) > 0 {
		if err := s.profiles.CreateBatch(ctx, batch); err != nil {
			return dto.RosterImportResult{}, err
		}
		result.Created = len(batch)
	}

	s.logger.Info().
		Uint("classroom_id", classroomID).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("roster imported")

	return result, nil
}

// ExportStudents renders the classroom roster as an xlsx workbook.
func (s *rosterService) ExportStudents(ctx context.Context, classroomID uint) ([]byte, string, error) {
	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrClassroomNotFound
		}
		return nil, "", err
	}

	role := models.RoleStudent
	students, err := s.profiles.List(ctx, repository.ProfileFilter{Role: &role, ClassroomID: &classroomID})
	if err != nil {
		return nil, "", err
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	headers := []string{"ID", "Full Name", "Username", "Classroom"}
	for col, header := range headers {
		axis, _ := excelize.CoordinatesToCellName(col+1, 1)
		workbook.SetCellValue(sheet, axis, header)
	}

	for i, student := range students {
		values := []interface{}{student.ID, student.FullName, student.Username, classroom.Name}
		for col, value := range values {
			axis, _ := excelize.CoordinatesToCellName(col+1, i+2)
			workbook.SetCellValue(sheet, axis, value)
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("roster-%s.xlsx", slugify(classroom.Name))
	return buf.Bytes(), filename, nil
}

// readSheet validates the upload is an xlsx workbook and returns its data
// rows with the header row stripped.
func readSheet(file *multipart.FileHeader) ([][]string, error) {
	if file == nil {
		return nil, ErrNotSpreadsheet
	}

	handle, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	payload, err := io.ReadAll(handle)
	if err != nil {
		return nil, err
	}

	if !mimetype.Detect(payload).Is(xlsxMime) {
		return nil, ErrNotSpreadsheet
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, ErrNotSpreadsheet
	}
	defer workbook.Close()

	rows, err := workbook.GetRows(workbook.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrEmptySpreadsheet
	}

	return rows[1:], nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, slug)
	return strings.Trim(slug, "-")
}
