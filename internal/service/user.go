package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/repo"
	"jobportal-crm/pkg/utils"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(uid string, role domain.Role) (string, error)
}

type UserService struct {
	users  domain.UserRepository
	tokens TokenIssuer
	log    *zap.Logger
}

func NewUserService(users domain.UserRepository, tokens TokenIssuer, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, tokens: tokens, log: log}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     domain.Role
}

type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func normEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Register creates a self-service account. Admins cannot be registered here.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.BadInput("email and password are required")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleCandidate
	}
	if !role.Valid() || role == domain.RoleAdmin {
		return nil, domain.BadInput("Invalid role (" + string(role) + ")")
	}
	if u, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, domain.Internal("find user", err)
	} else if u != nil {
		return nil, domain.BadInput("User already exists")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal("hash password", err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        &email,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if repo.IsDuplicateKey(err) {
			return nil, domain.BadInput("User already exists")
		}
		return nil, domain.Internal("create user", err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(role)))
	return s.session(u)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, normEmail(email))
	if err != nil {
		return nil, domain.Internal("find user", err)
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.Unauthorized("Invalid credentials")
	}
	return s.session(u)
}

func (s *UserService) session(u *domain.User) (*Session, error) {
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, domain.Internal("issue token", err)
	}
	return &Session{Token: tok, User: u}, nil
}

func (s *UserService) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, domain.Internal("find user", err)
	}
	if u == nil {
		return nil, domain.NotFound("User not found")
	}
	return u, nil
}

type UserPage struct {
	Total int64         `json:"total"`
	Data  []domain.User `json:"data"`
}

func (s *UserService) List(ctx context.Context, actor domain.Actor, f domain.UserFilter) (*UserPage, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbidden("admin only")
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	users, total, err := s.users.List(ctx, f)
	if err != nil {
		return nil, domain.Internal("list users", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return &UserPage{Total: total, Data: users}, nil
}

// Ban soft-deletes a user. Admins cannot ban themselves. Tokens already
// issued to the user are refused by the ActiveAccount middleware.
func (s *UserService) Ban(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return domain.Forbidden("admin only")
	}
	if id == actor.ID {
		return domain.BadInput("cannot ban yourself")
	}
	ok, err := s.users.SoftDelete(ctx, id)
	if err != nil {
		return domain.Internal("ban user", err)
	}
	if !ok {
		return domain.NotFound("User not found")
	}
	s.log.Info("user banned", zap.String("user_id", id), zap.String("by", actor.ID))
	return nil
}

// EnsureAdmin creates the bootstrap admin if no account uses email yet. An
// existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = normEmail(email)
	if email == "" || password == "" {
		return nil, domain.BadInput("bootstrap admin needs email and password")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal("find user", err)
	}
	if u != nil {
		return u, nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, domain.Internal("hash password", err)
	}
	u = &domain.User{ID: utils.NewID(), Email: &email, Name: name, PasswordHash: hash, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, domain.Internal("create admin", err)
	}
	s.log.Info("bootstrap admin created", zap.String("user_id", u.ID))
	return u, nil
}
