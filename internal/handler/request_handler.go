package handler

import (
	"net/http"

	"medshare-backend/internal/middleware"
	"medshare-backend/internal/model"
	"medshare-backend/internal/service"
	"medshare-backend/pkg/pagination"
	"medshare-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	workflow service.WorkflowService
}

func NewRequestHandler(workflow service.WorkflowService) *RequestHandler {
	return &RequestHandler{workflow: workflow}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.POST("/:medicineId", middleware.RequireRole(model.RoleRecipient), h.Create)
		requests.GET("/my", middleware.RequireRole(model.RoleRecipient, model.RoleAdmin), h.ListMine)

		requests.GET("", middleware.RequireRole(model.RoleAdmin), h.ListAll)
		requests.PATCH("/:id/approve", middleware.RequireRole(model.RoleAdmin), h.Approve)
		requests.PATCH("/:id/reject", middleware.RequireRole(model.RoleAdmin), h.Reject)
	}
}

// Create opens a pending request for a lot
// @Summary      Request a medicine
// @Description  Same operation as POST /medicines/request/{id}, keyed by the ledger route.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        medicineId  path      string  true  "Medicine ID"
// @Success      201         {object}  response.Response{data=service.RequestResponse}
// @Failure      400         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Router       /requests/{medicineId} [post]
func (h *RequestHandler) Create(c *gin.Context) {
	medicineID, err := uuid.Parse(c.Param("medicineId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid medicine ID"))
		return
	}

	req, err := h.workflow.RequestMedicine(c.Request.Context(), middleware.UserID(c), medicineID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, req))
}

// ListMine lists the caller's requests across all states
// @Summary      List my requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Router       /requests/my [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	reqs, err := h.workflow.ListRecipientRequests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reqs))
}

// ListAll lists every request in the ledger
// @Summary      List all requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.RequestResponse}
// @Router       /requests [get]
func (h *RequestHandler) ListAll(c *gin.Context) {
	params := pagination.Parse(c)

	reqs, total, err := h.workflow.ListAllRequests(c.Request.Context(), params.Offset, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"requests": reqs,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// Approve finalizes a pending request
// @Summary      Approve request
// @Description  Deducts one unit from the lot and marks the request APPROVED.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /requests/{id}/approve [patch]
func (h *RequestHandler) Approve(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request ID"))
		return
	}

	req, err := h.workflow.Approve(c.Request.Context(), middleware.UserID(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// Reject declines a pending request and releases the lot
// @Summary      Reject request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /requests/{id}/reject [patch]
func (h *RequestHandler) Reject(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request ID"))
		return
	}

	req, err := h.workflow.Reject(c.Request.Context(), middleware.UserID(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}
