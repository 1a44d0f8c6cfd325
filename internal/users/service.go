package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/adminportal/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Find(ctx context.Context, id string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, in User) (User, error)
	Update(ctx context.Context, id string, fn func(*User) error) (User, error)
}

// Service handles user business logic. Authorization is enforced by the
// route guards in front of it; methods taking an rbac.Request use it only
// to tell self-service apart from administration.
type Service struct {
	repo RepositoryPort
	cost int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, mainly for tests.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// Registration is the input for creating an account.
type Registration struct {
	Username string
	Email    string
	Password string
}

// Create registers an account with role on behalf of createdBy (empty for self sign-up).
func (s *Service) Create(ctx context.Context, role rbac.Role, in Registration, createdBy string) (SafeUser, error) {
	if !role.Valid() {
		return SafeUser{}, ErrInvalidRole
	}
	username, email := strings.TrimSpace(in.Username), strings.TrimSpace(in.Email)
	if username == "" {
		return SafeUser{}, ErrEmptyUsername
	}
	if email == "" {
		return SafeUser{}, ErrEmptyEmail
	}
	if len(in.Password) < MinPasswordLength {
		return SafeUser{}, ErrPasswordTooShort
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return SafeUser{}, err
	}
	u, err := s.repo.Create(ctx, User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedBy:    createdBy,
	})
	if err != nil {
		return SafeUser{}, err
	}
	return u.Safe(), nil
}

// SystemActor is recorded as the creator of accounts made outside a request.
const SystemActor = "system"

// Bootstrap creates in as the first super admin when no users exist yet.
// It reports false and leaves the store untouched otherwise.
func (s *Service) Bootstrap(ctx context.Context, in Registration) (SafeUser, bool, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return SafeUser{}, false, err
	}
	if len(existing) > 0 {
		return SafeUser{}, false, nil
	}
	u, err := s.Create(ctx, rbac.RoleSuperAdmin, in, SystemActor)
	if err != nil {
		return SafeUser{}, false, err
	}
	return u, true, nil
}

// List returns the users requester may view, optionally narrowed by f.
func (s *Service) List(ctx context.Context, requester rbac.Principal, f Filter) ([]SafeUser, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	viewable := make(map[rbac.Role]bool)
	for _, role := range rbac.ViewableRoles(requester.Role) {
		viewable[role] = true
	}
	out := make([]SafeUser, 0, len(all))
	for _, u := range all {
		if !viewable[u.Role] {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		out = append(out, u.Safe())
	}
	return out, nil
}

// Get returns the public view of the user with id.
func (s *Service) Get(ctx context.Context, id string) (SafeUser, error) {
	u, err := s.repo.Find(ctx, id)
	if err != nil {
		return SafeUser{}, err
	}
	return u.Safe(), nil
}

// UpdateProfile changes username and/or email.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (SafeUser, error) {
	if in.Username == nil && in.Email == nil {
		return SafeUser{}, ErrNoChanges
	}
	u, err := s.repo.Update(ctx, id, func(u *User) error {
		if in.Username != nil {
			u.Username = strings.TrimSpace(*in.Username)
			if u.Username == "" {
				return ErrEmptyUsername
			}
		}
		if in.Email != nil {
			u.Email = strings.TrimSpace(*in.Email)
			if u.Email == "" {
				return ErrEmptyEmail
			}
		}
		return nil
	})
	if err != nil {
		return SafeUser{}, err
	}
	return u.Safe(), nil
}

// ChangePassword sets a new password for req.Target. Changing one's own
// password requires the current one.
func (s *Service) ChangePassword(ctx context.Context, req rbac.Request, current, next string) error {
	if req.Target == nil {
		return ErrNotFound
	}
	if len(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	_, err = s.repo.Update(ctx, req.Target.ID, func(u *User) error {
		if req.IsSelf() && !CheckPassword(*u, current) {
			return ErrWrongPassword
		}
		u.PasswordHash = hash
		return nil
	})
	return err
}

// SetStatus activates or deactivates the user with id.
func (s *Service) SetStatus(ctx context.Context, id string, status rbac.Status) (SafeUser, error) {
	if !status.Valid() {
		return SafeUser{}, ErrInvalidStatus
	}
	u, err := s.repo.Update(ctx, id, func(u *User) error {
		u.Status = status
		return nil
	})
	if err != nil {
		return SafeUser{}, err
	}
	return u.Safe(), nil
}

// Delete soft-deletes the user with id by deactivating it.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.SetStatus(ctx, id, rbac.StatusInactive)
	return err
}

// Statistics counts users by role and status.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return Statistics{}, err
	}
	stats := Statistics{Total: len(all), ByRole: make(map[rbac.Role]int, len(rbac.Roles()))}
	for _, role := range rbac.Roles() {
		stats.ByRole[role] = 0
	}
	for _, u := range all {
		stats.ByRole[u.Role]++
		if u.Status == rbac.StatusActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
	}
	return stats, nil
}

// PermissionCheck is the answer to a role/action query.
type PermissionCheck struct {
	Allowed bool   `json:"has_permission"`
	Message string `json:"message"`
}

// ValidatePermission answers whether requester may perform rawAction on rawTarget accounts.
func (s *Service) ValidatePermission(requester rbac.Role, rawTarget, rawAction string) (PermissionCheck, error) {
	target, ok := rbac.ParseRole(rawTarget)
	if !ok {
		return PermissionCheck{}, ErrInvalidRole
	}
	action, ok := rbac.ParseAction(rawAction)
	if !ok {
		return PermissionCheck{}, ErrInvalidAction
	}
	if rbac.IsAllowed(requester, target, action) {
		return PermissionCheck{Allowed: true, Message: "Permission granted"}, nil
	}
	return PermissionCheck{Message: fmt.Sprintf("%s cannot %s %s users", requester, action, target)}, nil
}

// Authenticate checks username and password. Disabled accounts are reported
// with rbac.ErrAccountDisabled after the password matched.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !CheckPassword(u, password) {
		return User{}, ErrInvalidCredentials
	}
	if u.Status != rbac.StatusActive {
		return User{}, rbac.ErrAccountDisabled
	}
	return u, nil
}

// RecordLogin stamps the last login time of id.
func (s *Service) RecordLogin(ctx context.Context, id string) (User, error) {
	return s.repo.Update(ctx, id, func(u *User) error {
		now := timeNow()
		u.LastLogin = &now
		return nil
	})
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches u's stored hash.
func CheckPassword(u User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
