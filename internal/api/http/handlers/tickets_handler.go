package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/damage-service/internal/api/dto"
	"github.com/roadwatch/damage-service/internal/auth"
	"github.com/roadwatch/damage-service/internal/domain"
	"github.com/roadwatch/damage-service/internal/service"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create handles POST /api/tickets/create. The body is multipart form
// data so an image can travel with the ticket fields.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthMissing("authentication required")
	}

	input := service.TicketCreateInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Location:    c.FormValue("location"),
	}

	if lat := c.FormValue("latitude"); lat != "" {
		parsed, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid latitude", nil)
		}
		input.Latitude = &parsed
	}
	if lon := c.FormValue("longitude"); lon != "" {
		parsed, err := strconv.ParseFloat(lon, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid longitude", nil)
		}
		input.Longitude = &parsed
	}
	if conf := c.FormValue("confidence"); conf != "" {
		parsed, err := strconv.ParseFloat(conf, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid confidence", nil)
		}
		input.Confidence = &parsed
	}

	if file, err := c.FormFile("image"); err == nil && file != nil {
		data, name, err := readUpload(file)
		if err != nil {
			return apperrors.NewValidationError("unreadable image upload", nil)
		}
		input.Image = data
		input.ImageName = name
	}

	ticket, err := h.service.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"ticket_id": ticket.ID,
			"damage":    ticket.Damage,
			"priority":  ticket.Priority,
		},
	})
}

// ListMine handles POST /api/tickets/my.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthMissing("authentication required")
	}
	tickets, err := h.service.ListMine(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets)})
}

// ListAll handles POST /api/tickets/all. Admin role is enforced by
// middleware before this handler runs.
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	tickets, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets)})
}

// Get handles GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Update handles POST /api/tickets/:id/update (admin only).
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthMissing("authentication required")
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	err := h.service.UpdateStatus(c.UserContext(), actor, c.Params("id"), domain.TicketStatus(req.Status), req.AdminNotes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ok": true}})
}

func readUpload(file *multipart.FileHeader) ([]byte, string, error) {
	f, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, file.Filename, nil
}
