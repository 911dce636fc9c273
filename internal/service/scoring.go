package service

import (
	"math"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// ScoreBreakdown is the outcome of auto-grading one attempt.
type ScoreBreakdown struct {
	Correct      int
	TotalPG      int
	Derived      float64
	NeedsGrading bool
}

// gradeAnswers derives the multiple-choice score of an attempt. Each answer
// must carry its question with options preloaded. Essay questions are
// excluded from the denominator and flip NeedsGrading instead; points
// weighting is intentionally not applied, every pg question counts equally.
func gradeAnswers(questions []models.Question, answers []models.Answer) ScoreBreakdown {
	answerByQuestion := make(map[uint]models.Answer, len(answers))
	for _, answer := range answers {
		answerByQuestion[answer.QuestionID] = answer
	}

	var breakdown ScoreBreakdown
	for _, question := range questions {
		switch question.Type {
		case models.QuestionTypeEssay:
			breakdown.NeedsGrading = true
		case models.QuestionTypePG:
			breakdown.TotalPG++
			answer, ok := answerByQuestion[question.ID]
			if !ok || answer.PgOptionID == nil {
				continue
			}
			if correct := question.CorrectOption(); correct != nil && correct.ID == *answer.PgOptionID {
				breakdown.Correct++
			}
		}
	}

	if breakdown.TotalPG > 0 {
		breakdown.Derived = math.Round(100 * float64(breakdown.Correct) / float64(breakdown.TotalPG))
	}

	return breakdown
}

// effectiveScore applies the override rule: a manually set positive score
// on the submission wins over the derived value.
func effectiveScore(manual *float64, derived float64) float64 {
	if manual != nil && *manual > 0 {
		return *manual
	}
	return derived
}
