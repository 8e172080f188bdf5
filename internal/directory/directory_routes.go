package directory

import (
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	employees := r.Group("/employees")
	employees.Use(middleware.TerminalAuth())
	{
		employees.GET("", h.GetAll)
		employees.PUT("/:id/template", h.SupersedeTemplate)
	}
}
