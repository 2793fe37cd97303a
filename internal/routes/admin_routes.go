package routes

import (
	"shule_tracker/internal/controllers"
	"shule_tracker/internal/middleware"

	"github.com/gin-gonic/gin"
)

func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.POST("/reset", controllers.RunDailyReset)
		admin.GET("/students/:id/events", controllers.ListStudentEvents)
		admin.GET("/schools", controllers.ListSchools)
		admin.GET("/vans", controllers.ListVans)
		admin.GET("/students", controllers.ListStudents)
	}
}
