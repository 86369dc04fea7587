package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal-crm/internal/core/storage"
	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/feature/leadimport"
	"jobportal-crm/internal/service"
	"jobportal-crm/internal/transport/http/ez"
)

// Archiver keeps a copy of uploaded lead sheets.
type Archiver interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// LeadHandler serves /crm/leads and /crm/call. Archive may be nil.
type LeadHandler struct {
	leads   *service.LeadService
	archive Archiver
	log     *zap.Logger
	now     func() time.Time
}

func NewLeadHandler(leads *service.LeadService, archive Archiver, log *zap.Logger) *LeadHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeadHandler{leads: leads, archive: archive, log: log, now: time.Now}
}

func (h *LeadHandler) Priority() int { return 10 }

var (
	agentsOnly    = []domain.Role{domain.RoleAgent}
	agentsOrAdmin = []domain.Role{domain.RoleAgent, domain.RoleAdmin}
)

type leadIDIn struct {
	ID string `uri:"id"`
}

type listLeadsIn struct {
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
	Status  string `form:"status" binding:"omitempty,leadstatus"`
	AgentID string `form:"agentId"`
}

type countIn struct {
	AgentID string `form:"agentId"`
}

type createLeadIn struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Location string `json:"location"`
	Email    string `json:"email" binding:"omitempty,email"`
	Notes    string `json:"notes"`
	Source   string `json:"source" binding:"omitempty,leadsource"`
	Status   string `json:"status"`
}

type updateLeadIn struct {
	ID       string  `uri:"id"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Notes    *string `json:"notes"`
	Source   *string `json:"source" binding:"omitempty,leadsource"`
	Status   *string `json:"status"`
}

type setStatusIn struct {
	ID        string `uri:"id"`
	Status    string `json:"status"`
	NewStatus string `json:"newStatus"`
}

type importIn struct {
	Rows          []map[string]Cell `json:"rows"`
	ColumnMapping map[string]string `json:"columnMapping"`
}

type recordCallIn struct {
	LeadID          string `json:"leadId" binding:"required"`
	DurationSeconds int    `json:"durationSeconds"`
	Notes           string `json:"notes"`
}

type uploadOut struct {
	*service.ImportResult
	File       string `json:"file"`
	ArchivedAs string `json:"archivedAs,omitempty"`
}

func (h *LeadHandler) MountAPI(_, authed *gin.RouterGroup) {
	e := ez.New(authed.Group("/crm"), h.log)

	ez.RegisterAction(e, ez.Action[listLeadsIn, *service.LeadPage]{
		Method: http.MethodGet, Path: "/leads", Binder: ez.BindQuery,
		Auth: true, Roles: agentsOrAdmin,
		Handler: func(c *gin.Context, in *listLeadsIn) (*service.LeadPage, error) {
			return h.leads.ListLeads(c.Request.Context(), ez.MustActor(c), service.ListLeadsQuery{
				Page: in.Page, Limit: in.Limit, Status: domain.LeadStatus(in.Status), AgentID: in.AgentID,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[countIn, map[domain.LeadStatus]int64]{
		Method: http.MethodGet, Path: "/leads/count", Binder: ez.BindQuery,
		Auth: true, Roles: agentsOrAdmin,
		Handler: func(c *gin.Context, in *countIn) (map[domain.LeadStatus]int64, error) {
			return h.leads.CountByStatus(c.Request.Context(), ez.MustActor(c), in.AgentID)
		},
	})

	ez.RegisterAction(e, ez.Action[createLeadIn, *domain.Lead]{
		Method: http.MethodPost, Path: "/leads", Binder: ez.BindJSON,
		Auth: true, Roles: agentsOnly, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createLeadIn) (*domain.Lead, error) {
			return h.leads.CreateLead(c.Request.Context(), ez.MustActor(c), service.CreateLeadInput{
				Name:     in.Name,
				Phone:    in.Phone,
				Location: in.Location,
				Email:    in.Email,
				Notes:    in.Notes,
				Source:   domain.LeadSource(in.Source),
				Status:   domain.LeadStatus(in.Status),
			})
		},
	})

	ez.RegisterAction(e, ez.Action[importIn, *service.ImportResult]{
		Method: http.MethodPost, Path: "/leads/import", Binder: ez.BindJSON,
		Auth: true, Roles: agentsOnly, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *importIn) (*service.ImportResult, error) {
			rows := toRows(in.Rows)
			mapping := in.ColumnMapping
			if len(mapping) == 0 {
				mapping = leadimport.DefaultMapping(leadimport.Headers(rows))
			}
			return h.leads.ImportLeads(c.Request.Context(), ez.MustActor(c), rows, mapping)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *uploadOut]{
		Method: http.MethodPost, Path: "/leads/upload", Binder: ez.BindNone,
		Auth: true, Roles: agentsOnly, Status: http.StatusCreated,
		Handler: h.upload,
	})

	ez.RegisterAction(e, ez.Action[leadIDIn, *domain.Lead]{
		Method: http.MethodGet, Path: "/leads/:id", URI: true,
		Auth: true, Roles: agentsOrAdmin,
		Handler: func(c *gin.Context, in *leadIDIn) (*domain.Lead, error) {
			return h.leads.GetLead(c.Request.Context(), ez.MustActor(c), in.ID)
		},
	})

	ez.RegisterAction(e, ez.Action[updateLeadIn, *service.StatusChange]{
		Method: http.MethodPut, Path: "/leads/:id", Binder: ez.BindJSON, URI: true,
		Auth: true, Roles: agentsOrAdmin,
		Handler: func(c *gin.Context, in *updateLeadIn) (*service.StatusChange, error) {
			patch := service.LeadPatch{
				Name: in.Name, Phone: in.Phone, Location: in.Location, Email: in.Email, Notes: in.Notes,
			}
			if in.Source != nil {
				s := domain.LeadSource(*in.Source)
				patch.Source = &s
			}
			if in.Status != nil {
				s := domain.LeadStatus(*in.Status)
				patch.Status = &s
			}
			return h.leads.UpdateLead(c.Request.Context(), ez.MustActor(c), in.ID, patch)
		},
	})

	ez.RegisterAction(e, ez.Action[setStatusIn, *service.StatusChange]{
		Method: http.MethodPatch, Path: "/leads/:id/status", Binder: ez.BindJSON, URI: true,
		Auth: true, Roles: agentsOrAdmin,
		Handler: func(c *gin.Context, in *setStatusIn) (*service.StatusChange, error) {
			st := in.Status
			if st == "" {
				st = in.NewStatus
			}
			if st == "" {
				return nil, ez.BadRequest("status is required")
			}
			return h.leads.SetStatus(c.Request.Context(), ez.MustActor(c), in.ID, domain.LeadStatus(st))
		},
	})

	ez.RegisterAction(e, ez.Action[leadIDIn, *service.StatusChange]{
		Method: http.MethodPost, Path: "/leads/:id/shortlist", URI: true,
		Auth: true, Roles: agentsOrAdmin,
		Handler: func(c *gin.Context, in *leadIDIn) (*service.StatusChange, error) {
			return h.leads.SetStatus(c.Request.Context(), ez.MustActor(c), in.ID, domain.LeadStatusShortlisted)
		},
	})

	ez.RegisterAction(e, ez.Action[leadIDIn, *domain.Lead]{
		Method: http.MethodDelete, Path: "/leads/:id", URI: true,
		Auth: true, Roles: agentsOrAdmin,
		Handler: func(c *gin.Context, in *leadIDIn) (*domain.Lead, error) {
			return h.leads.SoftDeleteLead(c.Request.Context(), ez.MustActor(c), in.ID)
		},
	})

	ez.RegisterAction(e, ez.Action[leadIDIn, []domain.CallLog]{
		Method: http.MethodGet, Path: "/leads/:id/calls", URI: true,
		Auth: true, Roles: agentsOrAdmin,
		Handler: func(c *gin.Context, in *leadIDIn) ([]domain.CallLog, error) {
			calls, err := h.leads.ListCalls(c.Request.Context(), ez.MustActor(c), in.ID)
			if calls == nil && err == nil {
				calls = []domain.CallLog{}
			}
			return calls, err
		},
	})

	ez.RegisterAction(e, ez.Action[recordCallIn, *service.CallResult]{
		Method: http.MethodPost, Path: "/call", Binder: ez.BindJSON,
		Auth: true, Roles: agentsOnly, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *recordCallIn) (*service.CallResult, error) {
			return h.leads.RecordCall(c.Request.Context(), ez.MustActor(c), in.LeadID, in.DurationSeconds, in.Notes)
		},
	})
}

// upload takes a multipart "file" (.csv or .xlsx) and an optional
// "columnMapping" JSON field. Without a mapping, headers named exactly like
// lead fields are used.
func (h *LeadHandler) upload(c *gin.Context, _ *struct{}) (*uploadOut, error) {
	actor := ez.MustActor(c)
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, ez.BadRequest("file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, ez.BadRequest("cannot read upload")
	}
	sheet, err := leadimport.Decode(fh.Filename, f)
	_ = f.Close()
	if err != nil {
		return nil, ez.BadRequest(err.Error())
	}

	mapping := leadimport.DefaultMapping(sheet.Headers)
	if raw := c.PostForm("columnMapping"); raw != "" {
		mapping = nil
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			return nil, ez.BadRequest("columnMapping must be a JSON object")
		}
	}

	res, err := h.leads.ImportLeads(c.Request.Context(), actor, sheet.Rows, mapping)
	if err != nil {
		return nil, err
	}
	out := &uploadOut{ImportResult: res, File: fh.Filename}
	if h.archive != nil {
		key := storage.ObjectKey(actor.ID, fh.Filename, h.now())
		if err := h.archiveFile(c.Request.Context(), key, fh.Header.Get("Content-Type"), fh.Size, fh.Open); err != nil {
			h.log.Warn("lead sheet not archived", zap.String("key", key), zap.Error(err))
		} else {
			out.ArchivedAs = key
		}
	}
	return out, nil
}

func (h *LeadHandler) archiveFile(ctx context.Context, key, contentType string, size int64, open func() (multipart.File, error)) error {
	f, err := open()
	if err != nil {
		return err
	}
	defer f.Close()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return h.archive.Put(ctx, key, f, size, contentType)
}
