package directory

import (
	"net/http"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/apperror"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// GetAll lists the active employees of the terminal's branch (read-only
// directory view, templates themselves are never returned).
func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")
	branchID := c.GetString("branch_id")

	resp, err := h.service.GetAll(c.Request.Context(), companyID, branchID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) SupersedeTemplate(c *gin.Context) {
	companyID := c.GetString("company_id")
	employeeID := c.Param("id")

	var req SupersedeTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	if err := h.service.SupersedeTemplate(c.Request.Context(), companyID, employeeID, req); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"employee_id": employeeID}, nil)
}
