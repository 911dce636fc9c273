package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/service"
	"github.com/noah-isme/cbt-go-api/internal/utils"
)

// AttemptHandler wires the student exam-taking endpoints.
type AttemptHandler struct {
	service service.AttemptService
	logger  zerolog.Logger
}

// NewAttemptHandler constructs the handler.
func NewAttemptHandler(service service.AttemptService, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service: service,
		logger:  logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// Register attaches the student flow to the router group.
func (h *AttemptHandler) Register(router fiber.Router) {
	router.Get("/exams", h.listExams)
	router.Post("/exams/:id/start", h.start)
	router.Get("/exams/:id/questions", h.paper)
	router.Put("/submissions/:id/answers", h.saveAnswer)
	router.Post("/submissions/:id/violations", h.recordViolation)
	router.Post("/submissions/:id/finish", h.finish)
}

func (h *AttemptHandler) listExams(c *fiber.Ctx) error {
	entries, err := h.service.ListForStudent(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exams retrieved", entries)
}

func (h *AttemptHandler) start(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	state, err := h.service.Start(c.Context(), userIDFromContext(c), examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempt started", state)
}

func (h *AttemptHandler) paper(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	paper, err := h.service.Paper(c.Context(), userIDFromContext(c), examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam paper retrieved", paper)
}

func (h *AttemptHandler) saveAnswer(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SaveAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	saved, err := h.service.SaveAnswer(c.Context(), userIDFromContext(c), submissionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer saved", saved)
}

func (h *AttemptHandler) recordViolation(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	violation, err := h.service.RecordViolation(c.Context(), userIDFromContext(c), submissionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "violation recorded", violation)
}

func (h *AttemptHandler) finish(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	state, err := h.service.Finish(c.Context(), userIDFromContext(c), submissionID, service.FinishReasonManual)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempt finished", state)
}

func (h *AttemptHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrProfileNotFound):
		return utils.SendError(c, fiber.StatusUnauthorized, "session profile no longer exists")
	case errors.Is(err, service.ErrExamUnpublished),
		errors.Is(err, service.ErrExamNotOpen),
		errors.Is(err, service.ErrExamClosed),
		errors.Is(err, service.ErrWrongClassroom),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrAttemptNotStarted):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrDeadlinePassed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrQuestionNotInExam),
		errors.Is(err, service.ErrOptionNotInQuestion):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
