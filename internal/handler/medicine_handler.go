package handler

import (
	"net/http"

	"medshare-backend/internal/middleware"
	"medshare-backend/internal/model"
	"medshare-backend/internal/service"
	"medshare-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MedicineHandler struct {
	workflow service.WorkflowService
}

func NewMedicineHandler(workflow service.WorkflowService) *MedicineHandler {
	return &MedicineHandler{workflow: workflow}
}

func (h *MedicineHandler) RegisterRoutes(router *gin.RouterGroup) {
	medicines := router.Group("/medicines")
	{
		medicines.GET("", middleware.AuthRequired(), h.ListAvailable)
		medicines.GET("/search", middleware.AuthRequired(), h.Search)

		medicines.POST("/add", middleware.RequireRole(model.RoleDonor), h.Donate)
		medicines.GET("/donor/medicines", middleware.RequireRole(model.RoleDonor), h.ListDonorMedicines)
		medicines.PUT("/update/:id", middleware.RequireRole(model.RoleDonor, model.RoleAdmin), h.Update)

		medicines.GET("/recipient/requests", middleware.RequireRole(model.RoleRecipient), h.ListRecipientClaims)
		medicines.POST("/request/:id", middleware.RequireRole(model.RoleRecipient), h.Request)

		medicines.PUT("/approve/:id", middleware.RequireRole(model.RoleAdmin), h.ApproveLot)
		medicines.PUT("/reject/:id", middleware.RequireRole(model.RoleAdmin), h.RejectLot)
		medicines.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.Delete)
	}
}

// Donate records a donated medicine lot
// @Summary      Donate medicine
// @Description  Records a donation. Lots with the same donor, name and expiry date merge into one.
// @Tags         medicines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.DonateRequest  true  "Donation payload"
// @Success      201      {object}  response.Response{data=service.MedicineResponse}
// @Failure      400      {object}  response.Response
// @Router       /medicines/add [post]
func (h *MedicineHandler) Donate(c *gin.Context) {
	var req service.DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	med, err := h.workflow.Donate(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, med))
}

// ListAvailable lists claimable medicine lots
// @Summary      List available medicines
// @Description  Returns AVAILABLE, non-expired lots, optionally filtered. Overdue lots are expired before listing.
// @Tags         medicines
// @Produce      json
// @Security     BearerAuth
// @Param        name          query     string  false  "Name substring, case-insensitive"
// @Param        category      query     string  false  "Exact category"
// @Param        expiryBefore  query     string  false  "Expiry upper bound (YYYY-MM-DD)"
// @Param        expiryAfter   query     string  false  "Expiry lower bound (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=[]service.MedicineResponse}
// @Router       /medicines [get]
func (h *MedicineHandler) ListAvailable(c *gin.Context) {
	filter := service.ListFilter{
		Name:         c.Query("name"),
		Category:     c.Query("category"),
		ExpiryBefore: c.Query("expiryBefore"),
		ExpiryAfter:  c.Query("expiryAfter"),
	}

	meds, err := h.workflow.ListAvailable(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, meds))
}

// Search is the filtered listing under its own path, kept for clients
// that call /medicines/search.
// @Summary      Search medicines
// @Tags         medicines
// @Produce      json
// @Security     BearerAuth
// @Param        name          query     string  false  "Name substring, case-insensitive"
// @Param        category      query     string  false  "Exact category"
// @Param        expiryBefore  query     string  false  "Expiry upper bound (YYYY-MM-DD)"
// @Param        expiryAfter   query     string  false  "Expiry lower bound (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=[]service.MedicineResponse}
// @Router       /medicines/search [get]
func (h *MedicineHandler) Search(c *gin.Context) {
	h.ListAvailable(c)
}

// ListDonorMedicines lists the caller's donated lots
// @Summary      List my donations
// @Tags         medicines
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.MedicineResponse}
// @Router       /medicines/donor/medicines [get]
func (h *MedicineHandler) ListDonorMedicines(c *gin.Context) {
	meds, err := h.workflow.ListDonorMedicines(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, meds))
}

// ListRecipientClaims lists lots claimed by the caller
// @Summary      List my claimed medicines
// @Tags         medicines
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.MedicineResponse}
// @Router       /medicines/recipient/requests [get]
func (h *MedicineHandler) ListRecipientClaims(c *gin.Context) {
	meds, err := h.workflow.ListRecipientClaims(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, meds))
}

// Request claims an available lot for the caller
// @Summary      Request a medicine
// @Description  Places the lot on hold for the caller and opens a pending request.
// @Tags         medicines
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Medicine ID"
// @Success      201  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /medicines/request/{id} [post]
func (h *MedicineHandler) Request(c *gin.Context) {
	medicineID, err := uuid.Parse(c.Param("id"))
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

// Update edits a lot's quantity, expiry or status
// @Summary      Update medicine
// @Description  Donors may edit their own lots, admins any lot. Forcing quantity to zero or a past expiry expires the lot.
// @Tags         medicines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Medicine ID"
// @Param        payload  body      service.UpdateMedicineRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.MedicineResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /medicines/update/{id} [put]
func (h *MedicineHandler) Update(c *gin.Context) {
	medicineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid medicine ID"))
		return
	}

	var req service.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	med, err := h.workflow.UpdateMedicine(c.Request.Context(), middleware.UserID(c), middleware.UserRole(c), medicineID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, med))
}

// ApproveLot approves the pending request on a lot
// @Summary      Approve by medicine
// @Description  Resolves the lot's single pending request and approves it.
// @Tags         medicines
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Medicine ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /medicines/approve/{id} [put]
func (h *MedicineHandler) ApproveLot(c *gin.Context) {
	medicineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid medicine ID"))
		return
	}

	req, err := h.workflow.ApproveLot(c.Request.Context(), middleware.UserID(c), medicineID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// RejectLot rejects the pending request on a lot
// @Summary      Reject by medicine
// @Tags         medicines
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Medicine ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /medicines/reject/{id} [put]
func (h *MedicineHandler) RejectLot(c *gin.Context) {
	medicineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid medicine ID"))
		return
	}

	req, err := h.workflow.RejectLot(c.Request.Context(), middleware.UserID(c), medicineID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// Delete removes a lot entirely
// @Summary      Delete medicine
// @Tags         medicines
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Medicine ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /medicines/{id} [delete]
func (h *MedicineHandler) Delete(c *gin.Context) {
	medicineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid medicine ID"))
		return
	}

	if err := h.workflow.DeleteMedicine(c.Request.Context(), middleware.UserID(c), medicineID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Medicine deleted"))
}
