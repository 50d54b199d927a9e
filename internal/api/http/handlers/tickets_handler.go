package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/identity"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/service"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets. Open to anonymous callers.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	caller, _ := identity.FromContext(c)
	ticket, err := h.service.Create(c.UserContext(), caller, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Requester:   req.Requester,
		Computer:    req.Computer,
		Location:    req.Location,
		Category:    req.Category,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketFromDomain(ticket))
}

// List GET /tickets, newest-created-first.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	limit := parseInt(c.Query("limit"), 100)
	offset := parseInt(c.Query("offset"), 0)

	tickets, err := h.service.List(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketFromDomain(&tickets[i]))
	}
	return c.JSON(items)
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// Update PUT /tickets/:id. Requires a resolved identity.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	patch := repository.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
		Requester:   req.Requester,
		Category:    req.Category,
		HoldReason:  req.HoldReason,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		AssignedAt:  req.AssignedAt,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		patch.Status = &status
	}

	caller, _ := identity.FromContext(c)
	ticket, err := h.service.Update(c.UserContext(), caller, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// ListEvents GET /tickets/:id/events, newest-first.
func (h *TicketsHandler) ListEvents(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	caller, _ := identity.FromContext(c)
	eventLog, err := h.service.ListEvents(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	items := make([]dto.TicketEventResponse, 0, len(eventLog))
	for i := range eventLog {
		items = append(items, dto.TicketEventFromDomain(&eventLog[i]))
	}
	return c.JSON(items)
}

// AddEvent POST /tickets/:id/events.
func (h *TicketsHandler) AddEvent(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	caller, _ := identity.FromContext(c)
	event, err := h.service.AddEvent(c.UserContext(), caller, id, req.Type, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": event.ID})
}

func ticketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
