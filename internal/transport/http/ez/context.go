package ez

import (
	"github.com/gin-gonic/gin"

	"jobportal-crm/internal/domain"
)

// Context keys shared with the middleware package.
const (
	UserIDKey    = "userId"
	RoleKey      = "role"
	RequestIDKey = "X-Request-ID"
)

// SetActor stores the authenticated caller on c.
func SetActor(c *gin.Context, a domain.Actor) {
	c.Set(UserIDKey, a.ID)
	c.Set(RoleKey, string(a.Role))
}

// ActorFrom returns the caller stored by the auth middleware.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	uid := c.GetString(UserIDKey)
	if uid == "" {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: uid, Role: domain.Role(c.GetString(RoleKey))}, true
}

// MustActor is ActorFrom for actions registered with Auth: true.
func MustActor(c *gin.Context) domain.Actor {
	a, _ := ActorFrom(c)
	return a
}
