package routes

import (
	"shule_tracker/internal/controllers"
	"shule_tracker/internal/middleware"

	"github.com/gin-gonic/gin"
)

func GuardianRoutes(r *gin.Engine) {
	guardian := r.Group("/guardian")
	guardian.Use(middleware.RequireAuthWithRole("guardian"))
	{
		guardian.GET("/students/:id", controllers.GetStudentDashboard)
	}
}
