package handler

import (
	"net/http"

	"medshare-backend/internal/middleware"
	"medshare-backend/internal/model"
	"medshare-backend/internal/service"
	"medshare-backend/pkg/pagination"
	"medshare-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	workflow service.WorkflowService
	users    service.UserService
	stats    service.StatsService
}

func NewAdminHandler(workflow service.WorkflowService, users service.UserService, stats service.StatsService) *AdminHandler {
	return &AdminHandler{workflow: workflow, users: users, stats: stats}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/medicines", h.ListMedicines)
		admin.GET("/users", h.ListUsers)
		admin.GET("/stats", h.GetStats)
		admin.GET("/analytics/overview", h.GetOverview)
		admin.GET("/audit-logs", h.ListAuditLogs)
		admin.POST("/sweep", h.RunSweep)
	}
}

// ListMedicines lists every lot regardless of status
// @Summary      List all medicines
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.MedicineResponse}
// @Router       /admin/medicines [get]
func (h *AdminHandler) ListMedicines(c *gin.Context) {
	params := pagination.Parse(c)

	meds, total, err := h.workflow.ListAllMedicines(c.Request.Context(), params.Offset, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"medicines": meds,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// ListUsers lists registered accounts
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.UserResponse}
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := pagination.Parse(c)

	users, total, err := h.users.ListUsers(c.Request.Context(), params.Offset, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetStats returns platform-wide counters
// @Summary      Platform statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.StatsResponse}
// @Router       /admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetOverview returns request-workflow analytics
// @Summary      Analytics overview
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.OverviewResponse}
// @Router       /admin/analytics/overview [get]
func (h *AdminHandler) GetOverview(c *gin.Context) {
	overview, err := h.stats.GetOverview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, overview))
}

// ListAuditLogs lists workflow state changes, newest first
// @Summary      List audit logs
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.workflow.ListAuditLogs(c.Request.Context(), params.Offset, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// RunSweep runs the expiry sweep on demand
// @Summary      Run expiry sweep
// @Description  Expires overdue lots and queues expiring-soon reminders, same as the scheduled run.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.SweepResult}
// @Router       /admin/sweep [post]
func (h *AdminHandler) RunSweep(c *gin.Context) {
	result, err := h.workflow.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
