package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/store"
)

// SortDirection controls sort order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// TicketFilter captures list query parameters. The "assigned to me" and
// "created by me" flags arrive here already resolved to concrete user ids.
type TicketFilter struct {
	Search     string
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssigneeID *string
	CreatorID  *string
}

// TicketSort selects the sort field and direction. An empty or unknown
// field leaves tickets in storage order (newest first). The createdBy and
// assignedTo fields sort by the referenced user's name; an absent assignee
// sorts as the empty string.
type TicketSort struct {
	Field     string
	Direction SortDirection
}

// TicketPage selects the result window.
type TicketPage struct {
	Page  int
	Limit int
}

// TicketRepository encapsulates ticket storage access.
type TicketRepository interface {
	// List applies filter, sort and pagination in that order. The returned
	// total is the filtered count before pagination.
	List(ctx context.Context, filter TicketFilter, sortBy TicketSort, page TicketPage) ([]domain.Ticket, int, error)
	// GetByID returns the ticket with its comment thread attached. The
	// comment slice is always non-nil.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	// Delete removes the ticket. Deleting an unknown id is a no-op, and
	// comments of a deleted ticket stay in the side table.
	Delete(ctx context.Context, id string) error
	AddAttachment(ctx context.Context, ticketID string, att *domain.Attachment) error
	Stats(ctx context.Context) (domain.TicketStats, error)
}

type ticketRepository struct {
	db *store.Store
}

// NewTicketRepository returns a memory-backed implementation.
func NewTicketRepository(db *store.Store) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter, sortBy TicketSort, page TicketPage) ([]domain.Ticket, int, error) {
	if err := r.db.Simulate(ctx); err != nil {
		return nil, 0, err
	}

	r.db.Mu.RLock()
	defer r.db.Mu.RUnlock()

	matched := make([]*domain.Ticket, 0, len(r.db.Tickets))
	for _, t := range r.db.Tickets {
		if matchesTicket(t, filter) {
			matched = append(matched, t)
		}
	}
	total := len(matched)

	sortTickets(matched, sortBy)

	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}
	pageNum := page.Page
	if pageNum <= 0 {
		pageNum = 1
	}
	start := (pageNum - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	result := make([]domain.Ticket, 0, end-start)
	for _, t := range matched[start:end] {
		result = append(result, *cloneTicket(t))
	}
	return result, total, nil
}

func matchesTicket(t *domain.Ticket, filter TicketFilter) bool {
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		title := strings.ToLower(t.Title)
		description := strings.ToLower(t.Description)
		if !strings.Contains(title, search) && !strings.Contains(description, search) {
			return false
		}
	}
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && t.Priority != *filter.Priority {
		return false
	}
	if filter.AssigneeID != nil {
		if t.AssignedTo == nil || t.AssignedTo.ID != *filter.AssigneeID {
			return false
		}
	}
	if filter.CreatorID != nil && t.CreatedBy.ID != *filter.CreatorID {
		return false
	}
	return true
}

// timeSortLayout is fixed-width so lexical order equals chronological.
const timeSortLayout = "2006-01-02T15:04:05.000000000"

func sortTickets(tickets []*domain.Ticket, sortBy TicketSort) {
	if sortBy.Field == "" {
		return
	}
	desc := sortBy.Direction == SortDesc
	sort.SliceStable(tickets, func(i, j int) bool {
		a := ticketSortKey(tickets[i], sortBy.Field)
		b := ticketSortKey(tickets[j], sortBy.Field)
		if desc {
			return a > b
		}
		return a < b
	})
}

func ticketSortKey(t *domain.Ticket, field string) string {
	switch field {
	case "title":
		return strings.ToLower(t.Title)
	case "description":
		return strings.ToLower(t.Description)
	case "status":
		return strings.ToLower(string(t.Status))
	case "priority":
		return strings.ToLower(string(t.Priority))
	case "createdAt":
		return t.CreatedAt.UTC().Format(timeSortLayout)
	case "updatedAt":
		return t.UpdatedAt.UTC().Format(timeSortLayout)
	case "createdBy":
		return strings.ToLower(t.CreatedBy.Name)
	case "assignedTo":
		if t.AssignedTo == nil {
			return ""
		}
		return strings.ToLower(t.AssignedTo.Name)
	default:
		// Unknown fields collapse to equal keys; the stable sort keeps
		// storage order.
		return ""
	}
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if err := r.db.Simulate(ctx); err != nil {
		return nil, err
	}

	r.db.Mu.RLock()
	defer r.db.Mu.RUnlock()

	for _, t := range r.db.Tickets {
		if t.ID == id {
			ticket := cloneTicket(t)
			ticket.Comments = cloneComments(r.db.Comments[id])
			return ticket, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.db.Simulate(ctx); err != nil {
		return err
	}

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = now
	}

	r.db.Mu.Lock()
	defer r.db.Mu.Unlock()

	// Newest first: the unsorted list order is reverse-chronological.
	r.db.Tickets = append([]*domain.Ticket{cloneTicket(ticket)}, r.db.Tickets...)
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.db.Simulate(ctx); err != nil {
		return err
	}

	r.db.Mu.Lock()
	defer r.db.Mu.Unlock()

	for i, t := range r.db.Tickets {
		if t.ID == ticket.ID {
			updated := cloneTicket(ticket)
			// Comments live only in the side table; callers may pass a
			// ticket with the thread attached from GetByID, and storing
			// that snapshot would go stale.
			updated.Comments = nil
			updated.Attachments = t.Attachments
			r.db.Tickets[i] = updated
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.Simulate(ctx); err != nil {
		return err
	}

	r.db.Mu.Lock()
	defer r.db.Mu.Unlock()

	kept := r.db.Tickets[:0]
	for _, t := range r.db.Tickets {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	r.db.Tickets = kept
	return nil
}

func (r *ticketRepository) AddAttachment(ctx context.Context, ticketID string, att *domain.Attachment) error {
	if err := r.db.Simulate(ctx); err != nil {
		return err
	}

	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	if att.UploadedAt.IsZero() {
		att.UploadedAt = time.Now().UTC()
	}

	r.db.Mu.Lock()
	defer r.db.Mu.Unlock()

	for _, t := range r.db.Tickets {
		if t.ID == ticketID {
			t.Attachments = append(t.Attachments, *att)
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *ticketRepository) Stats(ctx context.Context) (domain.TicketStats, error) {
	if err := r.db.Simulate(ctx); err != nil {
		return domain.TicketStats{}, err
	}

	r.db.Mu.RLock()
	defer r.db.Mu.RUnlock()

	stats := domain.TicketStats{
		Total:      len(r.db.Tickets),
		ByStatus:   make(map[domain.TicketStatus]int),
		ByPriority: make(map[domain.TicketPriority]int),
	}
	for _, t := range r.db.Tickets {
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority]++
	}
	return stats, nil
}
