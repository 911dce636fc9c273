package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/service"
	"github.com/noah-isme/cbt-go-api/internal/utils"
)

// ExamHandler wires exam authoring, monitoring and export endpoints.
type ExamHandler struct {
	exams     service.ExamService
	questions service.QuestionService
	results   service.ResultService
	monitor   service.MonitorService
	exports   service.ExportService
	logger    zerolog.Logger
}

// NewExamHandler constructs the handler.
func NewExamHandler(exams service.ExamService, questions service.QuestionService, results service.ResultService, monitor service.MonitorService, exports service.ExportService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		exams:     exams,
		questions: questions,
		results:   results,
		monitor:   monitor,
		exports:   exports,
		logger:    logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches exam endpoints to the router group.
func (h *ExamHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/publish", h.publish)
	router.Get("/:id/questions", h.listQuestions)
	router.Put("/:id/questions", h.replaceQuestions)
	router.Post("/:id/questions/import", h.importQuestions)
	router.Get("/:id/results", h.examResults)
	router.Get("/:id/results/export", h.exportResults)
	router.Get("/:id/monitor", h.monitorExam)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	var filter dto.ExamListFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	exams, total, err := h.exams.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exams retrieved", fiber.Map{
		"exams": exams,
		"total": total,
	})
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	exam, err := h.exams.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.exams.Create(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam created", exam)
}

func (h *ExamHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ExamUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.exams.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam updated", exam)
}

func (h *ExamHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.exams.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam deleted", fiber.Map{"id": id})
}

func (h *ExamHandler) publish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	exam, err := h.exams.Publish(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrExamHasNoQuestions) {
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "exam has no questions")
		}
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam published", exam)
}

func (h *ExamHandler) listQuestions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questions, err := h.questions.ListForExam(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *ExamHandler) replaceQuestions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReplaceQuestionsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	questions, err := h.questions.Replace(c.Context(), id, payload)
	if err != nil {
		if errors.Is(err, service.ErrMalformedQuestion) {
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question set replaced", questions)
}

func (h *ExamHandler) importQuestions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "spreadsheet file is required")
	}

	result, err := h.exports.ImportQuestions(c.Context(), id, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotSpreadsheet), errors.Is(err, service.ErrEmptySpreadsheet):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrMalformedQuestion):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		default:
			return h.handleError(c, err)
		}
	}

	return utils.SendSuccess(c, "questions imported", result)
}

func (h *ExamHandler) examResults(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.results.ExamResults(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *ExamHandler) exportResults(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, filename, err := h.exports.ResultsXLSX(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(payload)
}

func (h *ExamHandler) monitorExam(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	snapshot, err := h.monitor.Snapshot(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "monitor snapshot", snapshot)
}

func (h *ExamHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrSubjectNotFound):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "subject not found")
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "classroom not found")
	case errors.Is(err, service.ErrInvalidWindow):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "exam window is invalid")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
