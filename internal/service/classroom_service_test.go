package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

func newClassroomFixture(t *testing.T) (ClassroomService, *gorm.DB) {
	t.Helper()

	db := openTestDB(t)
	svc := NewClassroomService(
		repository.NewClassroomRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		2*time.Minute,
		testLogger(),
	)
	return svc, db
}

func TestClassroomServiceCRUD(t *testing.T) {
	svc, _ := newClassroomFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.ClassroomRequest{Name: "VIII C", GradeLevel: "8"})
	require.NoError(t, err)
	require.Equal(t, "VIII C", created.Name)

	_, err = svc.Create(ctx, dto.ClassroomRequest{Name: "x"})
	require.Error(t, err)

	updated, err := svc.Update(ctx, created.ID, dto.ClassroomRequest{Name: "VIII D", GradeLevel: "8"})
	require.NoError(t, err)
	require.Equal(t, "VIII D", updated.Name)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrClassroomNotFound)
}

func TestClassroomServiceDetail(t *testing.T) {
	svc, db := newClassroomFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.ClassroomRequest{Name: "X MIPA 1", GradeLevel: "10"})
	require.NoError(t, err)

	subject := models.Subject{Name: "Bahasa Indonesia"}
	require.NoError(t, db.Create(&subject).Error)
	require.NoError(t, db.Create(&models.Profile{FullName: "Kirana", Username: "kirana", Password: "x", Role: models.RoleStudent, ClassroomID: &created.ID}).Error)
	require.NoError(t, db.Create(&models.Exam{Title: "PTS", SubjectID: subject.ID, ClassroomID: created.ID, TeacherID: 1, Duration: 60}).Error)

	detail, err := svc.Detail(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Students, 1)
	require.Equal(t, "kirana", detail.Students[0].Username)
	require.Len(t, detail.Exams, 1)
	require.Equal(t, "PTS", detail.Exams[0].Title)

	_, err = svc.Detail(ctx, 9999)
	require.ErrorIs(t, err, ErrClassroomNotFound)
}
