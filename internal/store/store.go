package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ErrNotFound is returned when an entity id does not exist in the store.
var ErrNotFound = errors.New("entity not found")

// Store owns the three in-memory collections. It provides storage and
// locking only; query and mutation logic lives in the repository layer.
//
// Tickets are kept newest-first: creation prepends, so the unsorted list
// order is reverse-chronological. Comments are a side table keyed by
// ticket id and are not removed when their ticket is deleted.
//
// The RWMutex makes the store safe for concurrent callers. Writers must
// hold Mu; readers may hold it in read mode.
type Store struct {
	Mu       sync.RWMutex
	Users    []*domain.User
	Tickets  []*domain.Ticket
	Comments map[string][]*domain.Comment

	latency time.Duration
}

// Options controls store construction.
type Options struct {
	// Latency is an artificial delay applied before every repository
	// operation to emulate network round-trips. Zero disables it; it has
	// no correctness role.
	Latency time.Duration
	// Seed populates the demo fixtures when true.
	Seed bool
}

// New constructs an empty store, optionally seeded with demo data.
func New(opts Options) *Store {
	s := &Store{
		Comments: make(map[string][]*domain.Comment),
		latency:  opts.Latency,
	}
	if opts.Seed {
		s.seed()
	}
	return s
}

// Simulate blocks for the configured artificial latency, honoring context
// cancellation. With zero latency it returns immediately.
func (s *Store) Simulate(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DefaultUserID returns the id of the first seeded user, used as the
// guest-fallback identity. Empty when the store has no users.
func (s *Store) DefaultUserID() string {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	if len(s.Users) == 0 {
		return ""
	}
	return s.Users[0].ID
}

// seed mirrors the demo fixtures the service ships with: an admin, an
// agent and an end-user, two tickets and one comment on each.
func (s *Store) seed() {
	now := time.Now().UTC()
	john := &domain.User{ID: "1", Name: "John Doe", Email: "john@example.com", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now}
	jane := &domain.User{ID: "2", Name: "Jane Smith", Email: "jane@example.com", Role: domain.RoleAgent, CreatedAt: now, UpdatedAt: now}
	bob := &domain.User{ID: "3", Name: "Bob Johnson", Email: "bob@example.com", Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now}
	s.Users = []*domain.User{john, jane, bob}

	t1Created := time.Date(2023, 8, 1, 10, 0, 0, 0, time.UTC)
	t2Created := time.Date(2023, 8, 5, 14, 0, 0, 0, time.UTC)
	janeRef := jane.Ref()
	bobRef := bob.Ref()
	s.Tickets = []*domain.Ticket{
		{
			ID:          "1",
			Title:       "Ticket 1",
			Description: "This is the first ticket",
			Status:      domain.TicketStatusOpen,
			Priority:    domain.TicketPriorityHigh,
			CreatedBy:   john.Ref(),
			AssignedTo:  &janeRef,
			CreatedAt:   t1Created,
			UpdatedAt:   t1Created,
		},
		{
			ID:          "2",
			Title:       "Ticket 2",
			Description: "This is the second ticket",
			Status:      domain.TicketStatusInProgress,
			Priority:    domain.TicketPriorityMedium,
			CreatedBy:   jane.Ref(),
			AssignedTo:  &bobRef,
			CreatedAt:   t2Created,
			UpdatedAt:   t2Created,
		},
	}

	s.Comments["1"] = []*domain.Comment{{
		ID:        "c1",
		TicketID:  "1",
		Content:   "Have you tried resetting your password?",
		Author:    jane.Ref(),
		CreatedAt: t1Created.Add(90 * time.Minute),
		UpdatedAt: t1Created.Add(90 * time.Minute),
	}}
	s.Comments["2"] = []*domain.Comment{{
		ID:        "c2",
		TicketID:  "2",
		Content:   "What is the file size of the image you are trying to upload?",
		Author:    jane.Ref(),
		CreatedAt: t2Created.Add(105 * time.Minute),
		UpdatedAt: t2Created.Add(105 * time.Minute),
	}}
}
