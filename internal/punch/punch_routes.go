package punch

import (
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rdb *redis.Client) {
	punch := r.Group("/punch")
	punch.Use(middleware.TerminalAuth())
	punch.Use(middleware.RateLimitByTerminal(rate.Limit(5), 10))
	{
		punch.GET("/suggestion", h.Suggestion)
		punch.GET("/records", h.GetAll)
		punch.POST("/sessions", h.StartSession)
		punch.POST("/sessions/:id/capture", h.Capture)
		// confirm writes the record; duplicate taps are absorbed here
		punch.POST("/sessions/:id/confirm", middleware.Idempotency(rdb), h.Confirm)
		punch.POST("/sessions/:id/reject", h.Reject)
		punch.DELETE("/sessions/:id", h.StopSession)
	}
}
