package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"library-lending/internal/core/auth"
	"library-lending/internal/core/database"
	"library-lending/internal/domain"
	"library-lending/pkg/utils"
)

var errBadCredentials = domain.Unauthorized("invalid email or password")

// Accounts owns registration, sessions and staff-side user management.
type Accounts struct {
	base
	jwt *auth.JWTer
}

type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role // empty means MEMBER
}

type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// Session is what a successful sign-in returns.
type Session struct {
	User   *domain.User `json:"user"`
	Tokens auth.Pair    `json:"tokens"`
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register creates a MEMBER account and signs it in.
func (s *Accounts) Register(ctx context.Context, name, email, password string) (*Session, error) {
	u, err := s.CreateUser(ctx, UserInput{Name: name, Email: email, Password: password, Role: domain.RoleMember})
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, u)
}

func (s *Accounts) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.store.Users.FindByEmail(ctx, normEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, errBadCredentials
	}
	s.log.Info("login", zap.String("user_id", u.ID))
	return s.startSession(ctx, u)
}

// Refresh rotates the session. Only the most recently issued refresh token works.
func (s *Accounts) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	c, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil, domain.Unauthorized("invalid refresh token")
	}
	u, err := s.store.Users.FindByID(ctx, c.UID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.RefreshToken == nil || *u.RefreshToken != refreshToken {
		return nil, domain.Unauthorized("invalid refresh token")
	}
	return s.startSession(ctx, u)
}

func (s *Accounts) Logout(ctx context.Context, userID string) error {
	return s.store.Users.SetRefreshToken(ctx, userID, nil)
}

func (s *Accounts) Profile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user", userID)
	}
	return u, nil
}

func (s *Accounts) startSession(ctx context.Context, u *domain.User) (*Session, error) {
	p, err := s.jwt.IssuePair(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	if err := s.store.Users.SetRefreshToken(ctx, u.ID, &p.RefreshToken); err != nil {
		return nil, err
	}
	u.RefreshToken = &p.RefreshToken
	return &Session{User: u, Tokens: p}, nil
}

func (s *Accounts) CreateUser(ctx context.Context, in UserInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return nil, domain.Invalid("role", "unknown role")
	}
	email := normEmail(in.Email)
	dup, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, domain.Conflict(domain.ReasonDuplicateEmail)
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.Users.Create(ctx, u); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, domain.Conflict(domain.ReasonDuplicateEmail)
		}
		return nil, err
	}
	s.log.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(role)))
	return u, nil
}

// UpdateUser applies the non-nil fields of p. A password change ends the user's session.
func (s *Accounts) UpdateUser(ctx context.Context, id string, p UserPatch) (*domain.User, error) {
	cur, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, domain.NotFound("user", id)
	}

	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		email := normEmail(*p.Email)
		if email != cur.Email {
			dup, err := s.store.Users.FindByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if dup != nil {
				return nil, domain.Conflict(domain.ReasonDuplicateEmail)
			}
		}
		fields["email"] = email
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, domain.Invalid("role", "unknown role")
		}
		fields["role"] = *p.Role
	}
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
		fields["refresh_token"] = nil
	}
	if len(fields) > 0 {
		if _, err := s.store.Users.Update(ctx, id, fields); err != nil {
			if database.IsDuplicateKey(err) {
				return nil, domain.Conflict(domain.ReasonDuplicateEmail)
			}
			return nil, err
		}
	}
	return s.Profile(ctx, id)
}

func (s *Accounts) ListUsers(ctx context.Context, q string, offset, limit int) ([]domain.User, int64, error) {
	return s.store.Users.List(ctx, q, offset, limit)
}
