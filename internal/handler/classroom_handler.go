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

// ClassroomHandler wires classroom and roster endpoints.
type ClassroomHandler struct {
	service service.ClassroomService
	roster  service.RosterService
	logger  zerolog.Logger
}

// NewClassroomHandler constructs the handler.
func NewClassroomHandler(service service.ClassroomService, roster service.RosterService, logger zerolog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		service: service,
		roster:  roster,
		logger:  logger.With().Str("component", "classroom_handler").Logger(),
	}
}

// Register attaches classroom endpoints to the router group.
func (h *ClassroomHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.detail)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/students/import", h.importStudents)
	router.Get("/:id/students/export", h.exportStudents)
}

func (h *ClassroomHandler) list(c *fiber.Ctx) error {
	classrooms, err := h.service.List(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "classrooms retrieved", classrooms)
}

func (h *ClassroomHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	classroom, err := h.service.Detail(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "classroom retrieved", classroom)
}

func (h *ClassroomHandler) create(c *fiber.Ctx) error {
	var payload dto.ClassroomRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "classroom created", classroom)
}

func (h *ClassroomHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ClassroomRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "classroom updated", classroom)
}

func (h *ClassroomHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "classroom deleted", fiber.Map{"id": id})
}

func (h *ClassroomHandler) importStudents(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "spreadsheet file is required")
	}

	result, err := h.roster.ImportStudents(c.Context(), id, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassroomNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "classroom not found")
		case errors.Is(err, service.ErrNotSpreadsheet), errors.Is(err, service.ErrEmptySpreadsheet):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccess(c, "roster imported", result)
}

func (h *ClassroomHandler) exportStudents(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, filename, err := h.roster.ExportStudents(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClassroomNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "classroom not found")
		}
		return h.internalError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(payload)
}

func (h *ClassroomHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "classroom not found")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *ClassroomHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
