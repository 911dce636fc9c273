package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

func newQuestionFixture(t *testing.T) (QuestionService, *gorm.DB, models.Exam) {
	t.Helper()

	db := openTestDB(t)

	classroom := models.Classroom{Name: "XI IPA 2"}
	require.NoError(t, db.Create(&classroom).Error)
	subject := models.Subject{Name: "Fisika"}
	require.NoError(t, db.Create(&subject).Error)

	exam := models.Exam{
		Title:       "Kuis Gerak Lurus",
		SubjectID:   subject.ID,
		ClassroomID: classroom.ID,
		TeacherID:   1,
		Duration:    30,
	}
	require.NoError(t, db.Create(&exam).Error)

	svc := NewQuestionService(
		repository.NewQuestionRepository(db),
		repository.NewExamRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	)

	return svc, db, exam
}

func pgInput(content string, correctIndex int) dto.QuestionInput {
	options := make([]dto.OptionInput, 0, 4)
	for i := 0; i < 4; i++ {
		options = append(options, dto.OptionInput{
			Content:   string(rune('A' + i)),
			IsCorrect: i == correctIndex,
		})
	}
	return dto.QuestionInput{Content: content, Type: models.QuestionTypePG, Points: 1, Options: options}
}

func TestQuestionServiceReplace(t *testing.T) {
	svc, _, exam := newQuestionFixture(t)
	ctx := context.Background()

	stored, err := svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{
		pgInput("Berapakah percepatan gravitasi bumi?", 0),
		{Content: "Jelaskan hukum Newton pertama.", Type: models.QuestionTypeEssay, Points: 10},
	}})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, 1, stored[0].Position)
	require.Equal(t, 2, stored[1].Position)
	require.Len(t, stored[0].Options, 4)
	require.Empty(t, stored[1].Options)

	// a second replace swaps the whole set
	stored, err = svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{
		pgInput("Soal baru", 1),
	}})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "Soal baru", stored[0].Content)
}

func TestQuestionServiceReplaceRejectsMalformedPG(t *testing.T) {
	svc, _, exam := newQuestionFixture(t)
	ctx := context.Background()

	t.Run("no correct option", func(t *testing.T) {
		_, err := svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{
			pgInput("Soal tanpa kunci", -1),
		}})
		require.ErrorIs(t, err, ErrMalformedQuestion)
	})

	t.Run("two correct options", func(t *testing.T) {
		input := pgInput("Soal dua kunci", 0)
		input.Options[1].IsCorrect = true
		_, err := svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{input}})
		require.ErrorIs(t, err, ErrMalformedQuestion)
	})

	t.Run("single option", func(t *testing.T) {
		_, err := svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{{
			Content: "Soal satu opsi",
			Type:    models.QuestionTypePG,
			Options: []dto.OptionInput{{Content: "A", IsCorrect: true}},
		}}})
		require.Error(t, err)
	})

	t.Run("essay with options", func(t *testing.T) {
		_, err := svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{{
			Content: "Esai dengan opsi",
			Type:    models.QuestionTypeEssay,
			Options: []dto.OptionInput{{Content: "A"}},
		}}})
		require.Error(t, err)
	})

	t.Run("empty set", func(t *testing.T) {
		_, err := svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{})
		require.Error(t, err)
	})
}

func TestQuestionServiceReplaceFailureKeepsOldSet(t *testing.T) {
	svc, _, exam := newQuestionFixture(t)
	ctx := context.Background()

	_, err := svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{
		pgInput("Soal lama", 0),
	}})
	require.NoError(t, err)

	_, err = svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{
		pgInput("Soal baru", 0),
		pgInput("Soal cacat", -1),
	}})
	require.ErrorIs(t, err, ErrMalformedQuestion)

	stored, err := svc.ListForExam(ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "Soal lama", stored[0].Content)
}

func TestQuestionServiceSanitizesHTML(t *testing.T) {
	svc, _, exam := newQuestionFixture(t)
	ctx := context.Background()

	input := pgInput(`Berapa hasil dari <b>2+2</b>?<script>alert("xss")</script>`, 0)
	input.Options[0].Content = `<img src=x onerror=alert(1)>4`

	stored, err := svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{input}})
	require.NoError(t, err)
	require.Contains(t, stored[0].Content, "<b>2+2</b>")
	require.NotContains(t, stored[0].Content, "<script>")
	require.NotContains(t, stored[0].Options[0].Content, "onerror")
}

func TestQuestionServiceAppend(t *testing.T) {
	svc, _, exam := newQuestionFixture(t)
	ctx := context.Background()

	_, err := svc.Replace(ctx, exam.ID, dto.ReplaceQuestionsRequest{Questions: []dto.QuestionInput{
		pgInput("Soal 1", 0),
	}})
	require.NoError(t, err)

	stored, err := svc.Append(ctx, exam.ID, []dto.QuestionInput{pgInput("Soal 2", 2)})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "Soal 1", stored[0].Content)
	require.Equal(t, "Soal 2", stored[1].Content)
	require.Equal(t, 2, stored[1].Position)
}

func TestQuestionServiceUnknownExam(t *testing.T) {
	svc, _, _ := newQuestionFixture(t)

	_, err := svc.ListForExam(context.Background(), 9999)
	require.ErrorIs(t, err, ErrExamNotFound)
}
