package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/store"
)

// CommentRepository defines storage access for ticket comments. The side
// table is keyed by ticket id and is deliberately decoupled from the
// ticket collection: adding a comment does not verify the ticket exists,
// and deleting a ticket leaves its thread behind.
type CommentRepository interface {
	Add(ctx context.Context, comment *domain.Comment) error
	// ListByTicket returns the thread in append order; a ticket with no
	// comments yields an empty, non-nil slice.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	db *store.Store
}

// NewCommentRepository returns a memory-backed implementation.
func NewCommentRepository(db *store.Store) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Add(ctx context.Context, comment *domain.Comment) error {
	if err := r.db.Simulate(ctx); err != nil {
		return err
	}

	if comment.ID == "" {
		comment.ID = "c" + uuid.NewString()
	}
	now := time.Now().UTC()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	if comment.UpdatedAt.IsZero() {
		comment.UpdatedAt = now
	}

	r.db.Mu.Lock()
	defer r.db.Mu.Unlock()

	r.db.Comments[comment.TicketID] = append(r.db.Comments[comment.TicketID], cloneComment(comment))
	return nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	if err := r.db.Simulate(ctx); err != nil {
		return nil, err
	}

	r.db.Mu.RLock()
	defer r.db.Mu.RUnlock()

	return cloneComments(r.db.Comments[ticketID]), nil
}
