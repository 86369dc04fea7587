package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/service"
	"jobportal-crm/internal/transport/http/ez"
	mdw "jobportal-crm/internal/transport/http/middleware"
)

// AuthHandler serves registration, login and the caller's profile.
type AuthHandler struct {
	users *service.UserService
	log   *zap.Logger
}

func NewAuthHandler(users *service.UserService, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{users: users, log: log}
}

func (h *AuthHandler) Priority() int { return 0 }

type registerIn struct {
	Name     string `json:"name" binding:"omitempty,max=128"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	Role     string `json:"role" binding:"omitempty,oneof=candidate employer agent"`
}

type loginIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) MountAPI(public, authed *gin.RouterGroup) {
	pub := ez.New(public.Group("/auth", mdw.RateLimitPerIP(5, 20)), h.log)

	ez.RegisterAction(pub, ez.Action[registerIn, *service.Session]{
		Method: http.MethodPost, Path: "/register", Binder: ez.BindJSON, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *registerIn) (*service.Session, error) {
			return h.users.Register(c.Request.Context(), service.RegisterInput{
				Name: in.Name, Email: in.Email, Password: in.Password, Phone: in.Phone, Role: domain.Role(in.Role),
			})
		},
	})
	ez.RegisterAction(pub, ez.Action[loginIn, *service.Session]{
		Method: http.MethodPost, Path: "/login", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.Session, error) {
			return h.users.Login(c.Request.Context(), in.Email, in.Password)
		},
	})

	ez.RegisterAction(ez.New(authed, h.log), ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet, Path: "/me", Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.users.Me(c.Request.Context(), ez.MustActor(c))
		},
	})
}
