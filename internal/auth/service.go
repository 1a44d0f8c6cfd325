package auth

import (
	"context"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/rbac"
	"github.com/noah-isme/adminportal/internal/users"
)

// ErrSignupDisabled is returned when self sign-up is turned off.
var ErrSignupDisabled = httpx.NewError(httpx.ErrForbidden, "Sign-up is disabled")

// Accounts is the slice of the users service that authentication needs.
type Accounts interface {
	Create(ctx context.Context, role rbac.Role, in users.Registration, createdBy string) (users.SafeUser, error)
	Get(ctx context.Context, id string) (users.SafeUser, error)
	Authenticate(ctx context.Context, username, password string) (users.User, error)
	RecordLogin(ctx context.Context, id string) (users.User, error)
	ChangePassword(ctx context.Context, req rbac.Request, current, next string) error
}

// Service wraps authentication business rules.
type Service struct {
	accounts    Accounts
	tokens      *TokenManager
	allowSignup bool
}

// NewService constructs a new Service.
func NewService(accounts Accounts, tokens *TokenManager, allowSignup bool) *Service {
	return &Service{accounts: accounts, tokens: tokens, allowSignup: allowSignup}
}

// Signup registers an employee account and logs it in.
func (s *Service) Signup(ctx context.Context, in users.Registration) (users.SafeUser, Pair, error) {
	if !s.allowSignup {
		return users.SafeUser{}, Pair{}, ErrSignupDisabled
	}
	u, err := s.accounts.Create(ctx, rbac.RoleEmp, in, "")
	if err != nil {
		return users.SafeUser{}, Pair{}, err
	}
	pair, err := s.tokens.Issue(u)
	if err != nil {
		return users.SafeUser{}, Pair{}, err
	}
	return u, pair, nil
}

// Login validates username/password credentials and issues tokens.
func (s *Service) Login(ctx context.Context, username, password string) (users.SafeUser, Pair, error) {
	u, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		return users.SafeUser{}, Pair{}, err
	}
	u, err = s.accounts.RecordLogin(ctx, u.ID)
	if err != nil {
		return users.SafeUser{}, Pair{}, err
	}
	safe := u.Safe()
	pair, err := s.tokens.Issue(safe)
	if err != nil {
		return users.SafeUser{}, Pair{}, err
	}
	return safe, pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return "", err
	}
	u, err := s.accounts.Get(ctx, claims.Subject)
	if err != nil {
		return "", err
	}
	if u.Status != rbac.StatusActive {
		return "", rbac.ErrAccountDisabled
	}
	return s.tokens.Access(u)
}

// Me returns the account of the authenticated principal.
func (s *Service) Me(ctx context.Context, p rbac.Principal) (users.SafeUser, error) {
	return s.accounts.Get(ctx, p.ID)
}

// ChangeOwnPassword replaces p's password after checking the current one.
func (s *Service) ChangeOwnPassword(ctx context.Context, p rbac.Principal, current, next string) error {
	req := rbac.Request{}.WithPrincipal(p).WithTarget(p)
	return s.accounts.ChangePassword(ctx, req, current, next)
}
