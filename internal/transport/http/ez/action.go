// Package ez registers typed request handlers ("actions") on gin groups and
// renders their results and errors through the response envelope.
package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal-crm/internal/domain"
	resp "jobportal-crm/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, log *zap.Logger) EZ {
	if log == nil {
		log = zap.NewNop()
	}
	return EZ{g: g, log: log}
}

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none"
)

// AErr is a transport error carrying the envelope code and optional data.
type AErr struct {
	Code int
	Msg  string
	Data any
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

var kindCodes = map[domain.ErrorKind]int{
	domain.KindForbidden:        resp.CodeForbidden,
	domain.KindNotFound:         resp.CodeNotFound,
	domain.KindInvalidStatus:    resp.CodeBadRequest,
	domain.KindBadInput:         resp.CodeBadRequest,
	domain.KindDuplicateKey:     resp.CodeConflict,
	domain.KindBulkWriteFailure: resp.CodeServerError,
	domain.KindUnauthorized:     resp.CodeUnauthorized,
	domain.KindInternal:         resp.CodeServerError,
}

// ToAErr classifies any error returned by a handler. Domain errors keep
// their message and details; anything unrecognised is a 500 whose cause is
// not exposed.
func ToAErr(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	var de *domain.Error
	if errors.As(err, &de) {
		code := kindCodes[de.Kind]
		msg := de.Message
		if de.Kind == domain.KindInternal {
			msg = ""
		}
		return &AErr{Code: code, Msg: msg, Data: de.Details, Err: err}
	}
	return &AErr{Code: resp.CodeServerError, Err: err}
}

// Action describes one endpoint. URI additionally binds path parameters
// (`uri` tags) after Binder runs. Status overrides the success status.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	URI     bool
	Auth    bool
	Roles   []domain.Role
	Status  int
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth {
			actor, ok := ActorFrom(c)
			if !ok {
				resp.Abort(c, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !hasRole(a.Roles, actor.Role) {
				resp.Abort(c, resp.Error(resp.CodeForbidden, "forbidden"))
				return
			}
		}

		// every bind validates the whole struct, so uri fields cannot be required
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr == nil && a.URI {
			bindErr = c.ShouldBindUri(&in)
		}
		if bindErr != nil {
			resp.Abort(c, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			ae := ToAErr(err)
			if ae.Code >= http.StatusInternalServerError {
				e.log.Error("action failed",
					zap.String("method", c.Request.Method),
					zap.String("path", c.FullPath()),
					zap.String("rid", c.GetString(RequestIDKey)),
					zap.Error(err),
				)
			}
			resp.Abort(c, resp.ErrorWith(ae.Code, ae.Msg, ae.Data))
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func hasRole(roles []domain.Role, r domain.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}
