package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal-crm/internal/service"
	"jobportal-crm/internal/transport/http/ez"
)

type ReportHandler struct {
	reports *service.ReportService
	log     *zap.Logger
}

func NewReportHandler(reports *service.ReportService, log *zap.Logger) *ReportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportHandler{reports: reports, log: log}
}

func (h *ReportHandler) Priority() int { return 20 }

func (h *ReportHandler) MountAPI(_, authed *gin.RouterGroup) {
	e := ez.New(authed.Group("/crm"), h.log)
	ez.RegisterAction(e, ez.Action[struct{}, *service.AgentSummary]{
		Method: http.MethodGet, Path: "/agent/report/me",
		Auth: true, Roles: agentsOnly,
		Handler: func(c *gin.Context, _ *struct{}) (*service.AgentSummary, error) {
			return h.reports.MySummary(c.Request.Context(), ez.MustActor(c))
		},
	})
}

type dailyIn struct {
	Start string `form:"start"`
	End   string `form:"end"`
}

func (h *ReportHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin.Group("/reports"), h.log)
	ez.RegisterAction(e, ez.Action[struct{}, []service.AgentSummary]{
		Method: http.MethodGet, Path: "/agents", Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) ([]service.AgentSummary, error) {
			return h.reports.AgentSummaries(c.Request.Context(), ez.MustActor(c))
		},
	})
	ez.RegisterAction(e, ez.Action[dailyIn, *service.DailyVolume]{
		Method: http.MethodGet, Path: "/daily-leads", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *dailyIn) (*service.DailyVolume, error) {
			return h.reports.DailyLeadVolume(c.Request.Context(), ez.MustActor(c), in.Start, in.End)
		},
	})
}
