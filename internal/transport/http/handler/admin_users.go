package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/service"
	"jobportal-crm/internal/transport/http/ez"
)

// AdminUsersHandler lists and bans accounts on the admin engine.
type AdminUsersHandler struct {
	users *service.UserService
	log   *zap.Logger
}

func NewAdminUsersHandler(users *service.UserService, log *zap.Logger) *AdminUsersHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminUsersHandler{users: users, log: log}
}

type listUsersIn struct {
	Offset      int    `form:"offset,default=0"`
	Limit       int    `form:"limit,default=20"`
	Q           string `form:"q"`
	Role        string `form:"role" binding:"omitempty,oneof=candidate employer admin agent"`
	WithDeleted bool   `form:"with_deleted"`
}

type userIDIn struct {
	ID string `uri:"id"`
}

func (h *AdminUsersHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, h.log)

	ez.RegisterAction(e, ez.Action[listUsersIn, *service.UserPage]{
		Method: http.MethodGet, Path: "/users", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *listUsersIn) (*service.UserPage, error) {
			return h.users.List(c.Request.Context(), ez.MustActor(c), domain.UserFilter{
				Query:       in.Q,
				Role:        domain.Role(in.Role),
				WithDeleted: in.WithDeleted,
				Offset:      in.Offset,
				Limit:       in.Limit,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[userIDIn, gin.H]{
		Method: http.MethodPost, Path: "/users/:id/ban", URI: true, Auth: true,
		Handler: func(c *gin.Context, in *userIDIn) (gin.H, error) {
			if err := h.users.Ban(c.Request.Context(), ez.MustActor(c), in.ID); err != nil {
				return nil, err
			}
			return gin.H{"id": in.ID}, nil
		},
	})
}
