package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/adminportal/internal/rbac"
	"github.com/noah-isme/adminportal/internal/users"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	ErrTokenExpired   = errors.New("auth: token has expired")
	ErrTokenInvalid   = errors.New("auth: invalid token")
	ErrWrongTokenType = errors.New("auth: invalid token type")
)

// Claims carried by portal tokens. The subject is the user id.
type Claims struct {
	Username string    `json:"username,omitempty"`
	Role     rbac.Role `json:"role,omitempty"`
	Type     TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Pair is an access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Issue creates a fresh token pair for u.
func (m *TokenManager) Issue(u users.SafeUser) (Pair, error) {
	access, err := m.Access(u)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.sign(Claims{Type: TokenRefresh}, u.ID, m.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Access creates an access token for u.
func (m *TokenManager) Access(u users.SafeUser) (string, error) {
	return m.sign(Claims{Username: u.Username, Role: u.Role, Type: TokenAccess}, u.ID, m.accessTTL)
}

func (m *TokenManager) sign(claims Claims, subject string, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse validates token and returns its claims when it has type want.
func (m *TokenManager) Parse(token string, want TokenType) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Verify implements rbac.TokenVerifier. Only access tokens are accepted.
// Role claims are ignored; the directory is authoritative.
func (m *TokenManager) Verify(_ context.Context, token string) (string, error) {
	claims, err := m.Parse(token, TokenAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

var _ rbac.TokenVerifier = (*TokenManager)(nil)
