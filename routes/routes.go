package routes

import (
	"github.com/gin-gonic/gin"

	"go-lifeline/handlers"
	"go-lifeline/middleware"
	"go-lifeline/types"
)

// SetupRouter wires every endpoint behind the principal middleware and the
// per-route role guards.
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	r := gin.Default()

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api", middleware.Principal())
	{
		cases := api.Group("/cases")
		{
			cases.POST("", middleware.RequireRole(types.RoleReporter), h.CreateCase)
			cases.GET("", middleware.RequireRole(types.RoleResponder, types.RoleCoordinator), h.ListCases)
			cases.GET("/:id", h.GetCase)

			cases.POST("/:id/claim", middleware.RequireRole(types.RoleResponder), h.ClaimCase)
			cases.POST("/:id/depart", middleware.RequireRole(types.RoleResponder), h.DepartCase)
			cases.POST("/:id/arrive", middleware.RequireRole(types.RoleResponder), h.ArriveCase)
			cases.POST("/:id/toggle", middleware.RequireRole(types.RoleCoordinator), h.ToggleCase)
			cases.DELETE("/:id", middleware.RequireRole(types.RoleCoordinator), h.DeleteCase)

			cases.POST("/:id/messages", middleware.RequireRole(types.RoleReporter, types.RoleResponder), h.SendMessage)
			cases.POST("/:id/read", middleware.RequireRole(types.RoleReporter, types.RoleResponder), h.MarkRead)

			cases.POST("/:id/position", middleware.RequireRole(types.RoleResponder), h.ReportPosition)
			cases.GET("/:id/eta", h.GetETA)
		}

		api.GET("/dashboard/summary", middleware.RequireRole(types.RoleCoordinator, types.RoleResponder), h.DashboardSummary)
		api.POST("/analyze", h.Analyze)
	}

	ws := r.Group("/ws", middleware.Principal())
	{
		ws.GET("/feed", middleware.RequireRole(types.RoleCoordinator, types.RoleResponder), h.WatchFeed)
		ws.GET("/cases/:id", h.WatchCase)
	}

	return r
}
