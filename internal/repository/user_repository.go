package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/store"
)

// UserRepository defines storage access for users. Users are never
// deleted, and no uniqueness is enforced on email: registering the same
// address twice creates a second account, and email lookups return the
// earliest match.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns a snapshot copy in insertion order.
	List(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	db *store.Store
}

// NewUserRepository returns a memory-backed implementation.
func NewUserRepository(db *store.Store) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.Simulate(ctx); err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	r.db.Mu.Lock()
	defer r.db.Mu.Unlock()

	r.db.Users = append(r.db.Users, cloneUser(user))
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := r.db.Simulate(ctx); err != nil {
		return nil, err
	}

	r.db.Mu.RLock()
	defer r.db.Mu.RUnlock()

	for _, u := range r.db.Users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := r.db.Simulate(ctx); err != nil {
		return nil, err
	}

	r.db.Mu.RLock()
	defer r.db.Mu.RUnlock()

	for _, u := range r.db.Users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	if err := r.db.Simulate(ctx); err != nil {
		return nil, err
	}

	r.db.Mu.RLock()
	defer r.db.Mu.RUnlock()

	users := make([]domain.User, 0, len(r.db.Users))
	for _, u := range r.db.Users {
		users = append(users, *cloneUser(u))
	}
	return users, nil
}
