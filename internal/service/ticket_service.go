package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/store"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows over the in-memory store.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	statsCache *persistence.StatsCache
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	StatsCache  *persistence.StatsCache
}

// TicketListQuery describes listing parameters. AssignedToMe and
// CreatedByMe are evaluated against the acting user.
type TicketListQuery struct {
	Search       string
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	AssignedToMe bool
	CreatedByMe  bool
	SortBy       string
	SortOrder    repository.SortDirection
	Page         int
	Limit        int
}

// TicketListResult carries one page plus pagination metadata. Total is
// the filtered count before pagination and never depends on the window.
type TicketListResult struct {
	Tickets    []domain.Ticket
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	Priority     domain.TicketPriority
	AssignedToID *string
}

// TicketUpdateInput is a partial update. Nil pointers leave the field
// unchanged, with one deliberate exception: a nil AssignedToID clears the
// assignment. "Omit to unassign" is the inherited contract; callers that
// want to keep the assignee must resend the id on every update.
type TicketUpdateInput struct {
	Title        *string
	Description  *string
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	AssignedToID *string
}

// AttachmentInput carries upload-subsystem registration metadata.
type AttachmentInput struct {
	Name string
	URL  string
	Size int64
	Type string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		statsCache: deps.StatsCache,
	}
}

// ListTickets applies search, status, priority, assigned-to-me and
// created-by-me filters in that order, then sorts and paginates.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, query TicketListQuery) (*TicketListResult, error) {
	filter := repository.TicketFilter{
		Search:   query.Search,
		Status:   query.Status,
		Priority: query.Priority,
	}
	if query.AssignedToMe {
		id := actor.ID
		filter.AssigneeID = &id
	}
	if query.CreatedByMe {
		id := actor.ID
		filter.CreatorID = &id
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	tickets, total, err := s.tickets.List(ctx,
		filter,
		repository.TicketSort{Field: query.SortBy, Direction: query.SortOrder},
		repository.TicketPage{Page: page, Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	return &TicketListResult{
		Tickets:    tickets,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// GetTicket fetches a ticket with its comment thread attached.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// CreateTicket creates a ticket attributed to the acting user. Priority
// defaults to MEDIUM; status is always OPEN. An assignee id that matches
// no known user is accepted silently and leaves the ticket unassigned.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		CreatedBy:   actor.Ref(),
		AssignedTo:  s.resolveAssignee(ctx, input.AssignedToID),
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.statsCache.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketCreatedPayload{
			Title:      ticket.Title,
			Priority:   ticket.Priority,
			AssigneeID: assigneeID(ticket),
		},
	})
	return ticket, nil
}

// UpdateTicket merges the patch over the existing ticket and stamps
// updatedAt. Assignment is recomputed on every call from AssignedToID;
// see TicketUpdateInput for the omit-to-unassign contract. Any status
// value overwrites unconditionally; transition legality is not enforced.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, id string, patch TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	oldStatus := ticket.Status

	if patch.Title != nil {
		ticket.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		ticket.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	ticket.AssignedTo = s.resolveAssignee(ctx, patch.AssignedToID)
	ticket.UpdatedAt = time.Now().UTC()

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	s.statsCache.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketUpdatedPayload{
			OldStatus:  oldStatus,
			NewStatus:  ticket.Status,
			AssigneeID: assigneeID(ticket),
			Unassigned: ticket.AssignedTo == nil,
		},
	})
	return ticket, nil
}

// DeleteTicket hard-removes the ticket. Comments are not cascaded; the
// orphaned thread stays in the side table. Deleting an unknown id
// succeeds silently.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, id string) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		return err
	}
	s.statsCache.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Actor:    eventActor(actor),
		Payload:  events.TicketDeletedPayload{},
	})
	return nil
}

// AddComment appends a comment authored by the acting user. The ticket's
// existence is deliberately not verified: commenting on a deleted ticket
// succeeds and the comment lands in the orphaned thread.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, content string) (*domain.Comment, error) {
	comment := &domain.Comment{
		TicketID: ticketID,
		Content:  content,
		Author:   actor.Ref(),
	}
	if err := s.comments.Add(ctx, comment); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticketID,
		Actor:    eventActor(actor),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    actor.ID,
			BodyPreview: preview(content),
		},
	})
	return comment, nil
}

// ListComments returns the comment thread for a ticket, empty when the
// ticket has none or does not exist.
func (s *TicketService) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	return s.comments.ListByTicket(ctx, ticketID)
}

// AddAttachment registers an upload result against a ticket.
func (s *TicketService) AddAttachment(ctx context.Context, ticketID string, input AttachmentInput) (*domain.Attachment, error) {
	att := &domain.Attachment{
		Name: input.Name,
		URL:  input.URL,
		Size: input.Size,
		Type: input.Type,
	}
	if err := s.tickets.AddAttachment(ctx, ticketID, att); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	return att, nil
}

// ListUsers returns a snapshot of all users.
func (s *TicketService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Stats returns aggregate ticket counts, served from the Redis cache
// when fresh.
func (s *TicketService) Stats(ctx context.Context) (*domain.TicketStats, error) {
	if cached, ok := s.statsCache.Get(ctx); ok {
		return cached, nil
	}
	stats, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, err
	}
	s.statsCache.Set(ctx, &stats)
	return &stats, nil
}

// resolveAssignee maps an assignee id to a user reference. A nil or empty
// id, or an id that matches no user, yields no assignee.
func (s *TicketService) resolveAssignee(ctx context.Context, id *string) *domain.UserRef {
	if id == nil || *id == "" {
		return nil
	}
	user, err := s.users.GetByID(ctx, *id)
	if err != nil {
		return nil
	}
	ref := user.Ref()
	return &ref
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor *domain.User) events.Actor {
	return events.Actor{UserID: actor.ID, Role: actor.Role}
}

func assigneeID(ticket *domain.Ticket) *string {
	if ticket.AssignedTo == nil {
		return nil
	}
	id := ticket.AssignedTo.ID
	return &id
}

func preview(body string) string {
	const max = 80
	if len(body) <= max {
		return body
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}
