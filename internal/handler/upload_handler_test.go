package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
)

// tinyPNG is a 1x1 transparent PNG so mimetype detection sees a real image.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestQuestionImageUpload(t *testing.T) {
	ta := setupTestApp(t)
	teacher, _, _, _ := seedStaffAndClass(t, ta.db)

	resp := ta.upload(t, "/api/v1/uploads/question-image", "file", "Diagram Soal.PNG", tinyPNG, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result dto.UploadResponse
	dataAs(t, decodeResponse(t, resp), &result)
	require.Equal(t, "image/png", result.MimeType)
	require.Equal(t, "diagram-soal.png", result.FileName)
	require.NotEmpty(t, result.URL)
	require.NotEmpty(t, result.Checksum)
}

func TestQuestionImageUploadRejectsNonImages(t *testing.T) {
	ta := setupTestApp(t)
	teacher, _, _, _ := seedStaffAndClass(t, ta.db)

	resp := ta.upload(t, "/api/v1/uploads/question-image", "file", "notes.txt", []byte("plain text"), teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, decodeResponse(t, resp).Success)
}
