package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/adminportal/internal/platform/kv"
	"github.com/noah-isme/adminportal/internal/rbac"
)

// DocumentKey is the store key holding the user collection.
const DocumentKey = "users"

// Repository persists users as a single document keyed by user id.
type Repository struct {
	store kv.Store
	mu    sync.Mutex
	now   func() time.Time
}

// NewRepository constructs a repository over store.
func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repository) load(ctx context.Context) (map[string]User, error) {
	users := map[string]User{}
	if err := r.store.Get(ctx, DocumentKey, &users); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return map[string]User{}, nil
		}
		return nil, fmt.Errorf("users: load: %w", err)
	}
	return users, nil
}

func (r *Repository) persist(ctx context.Context, users map[string]User) error {
	if err := r.store.Put(ctx, DocumentKey, users); err != nil {
		return fmt.Errorf("users: save: %w", err)
	}
	return nil
}

// Find returns the user with id.
func (r *Repository) Find(ctx context.Context, id string) (User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return User{}, err
	}
	u, ok := users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// FindByUsername returns the user whose username matches exactly.
func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// List returns all users ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Create stores a new active user. PasswordHash must already be derived.
func (r *Repository) Create(ctx context.Context, in User) (User, error) {
	if !in.Role.Valid() {
		return User{}, ErrInvalidRole
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return User{}, err
	}
	if err := checkUnique(users, "", in.Username, in.Email); err != nil {
		return User{}, err
	}
	now := r.now()
	in.ID = newUserID()
	for _, taken := users[in.ID]; taken; _, taken = users[in.ID] {
		in.ID = newUserID()
	}
	in.Status = rbac.StatusActive
	in.CreatedAt = now
	in.UpdatedAt = now
	in.LastLogin = nil
	users[in.ID] = in
	if err := r.persist(ctx, users); err != nil {
		return User{}, err
	}
	return in, nil
}

// Update applies fn to the stored user with id and persists the result.
func (r *Repository) Update(ctx context.Context, id string, fn func(*User) error) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return User{}, err
	}
	u, ok := users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if err := fn(&u); err != nil {
		return User{}, err
	}
	if err := checkUnique(users, id, u.Username, u.Email); err != nil {
		return User{}, err
	}
	u.ID = id
	u.UpdatedAt = r.now()
	users[id] = u
	if err := r.persist(ctx, users); err != nil {
		return User{}, err
	}
	return u, nil
}

// Lookup implements rbac.Directory against the backing store.
func (r *Repository) Lookup(ctx context.Context, id string) (rbac.Principal, error) {
	u, err := r.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rbac.Principal{}, rbac.ErrNoRecord
		}
		return rbac.Principal{}, err
	}
	return u.Principal(), nil
}

func checkUnique(users map[string]User, self, username, email string) error {
	for id, u := range users {
		if id == self {
			continue
		}
		if u.Username == username {
			return ErrUsernameTaken
		}
		if strings.EqualFold(u.Email, email) {
			return ErrEmailTaken
		}
	}
	return nil
}

func newUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

var _ rbac.Directory = (*Repository)(nil)
