package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("no session")
	}
	query, err := parseTicketListQuery(c)
	if err != nil {
		return err
	}
	result, err := h.service.ListTickets(c.UserContext(), actor, query)
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(result.Tickets))
	for i := range result.Tickets {
		items = append(items, dto.NewTicketResponse(&result.Tickets[i]))
	}
	return c.JSON(dto.TicketListResponse{
		Data: items,
		Meta: dto.ListMeta{
			Total:      result.Total,
			Page:       result.Page,
			Limit:      result.Limit,
			TotalPages: result.TotalPages,
		},
	})
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatsResponse(stats)})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("no session")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("title, description required", nil)
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": req.Priority})
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Update PATCH /tickets/:id. Omitting assignedToId clears the assignment.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("no session")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status != nil && !req.Status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": *req.Status})
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": *req.Priority})
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, c.Params("id"), service.TicketUpdateInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("no session")
	}
	if err := h.service.DeleteTicket(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.service.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("no session")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}

	comment, err := h.service.AddComment(c.UserContext(), actor, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// AddAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	var req dto.CreateAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.URL) == "" {
		return apperrors.NewValidationError("name, url required", nil)
	}

	att, err := h.service.AddAttachment(c.UserContext(), c.Params("id"), service.AttachmentInput{
		Name: req.Name,
		URL:  req.URL,
		Size: req.Size,
		Type: req.Type,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAttachmentResponse(*att)})
}

func parseTicketListQuery(c *fiber.Ctx) (service.TicketListQuery, error) {
	query := service.TicketListQuery{
		Search:       c.Query("search"),
		AssignedToMe: parseBool(c.Query("assignedToMe")),
		CreatedByMe:  parseBool(c.Query("createdByMe")),
		SortBy:       c.Query("sortBy"),
		Page:         parseInt(c.Query("page"), 1),
		Limit:        parseInt(c.Query("limit"), 10),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.TicketStatus(statusStr)
		if !status.Valid() {
			return query, apperrors.NewValidationError("unknown status", map[string]any{"status": statusStr})
		}
		query.Status = &status
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := domain.TicketPriority(priorityStr)
		if !priority.Valid() {
			return query, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priorityStr})
		}
		query.Priority = &priority
	}

	// Anything but an explicit "asc" sorts descending.
	if strings.EqualFold(c.Query("sortOrder"), string(repository.SortAsc)) {
		query.SortOrder = repository.SortAsc
	} else {
		query.SortOrder = repository.SortDesc
	}
	return query, nil
}

func parseBool(val string) bool {
	parsed, err := strconv.ParseBool(val)
	return err == nil && parsed
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
