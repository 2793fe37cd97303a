package routes

import (
	"shule_tracker/internal/controllers"
	"shule_tracker/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SchoolRoutes(r *gin.Engine) {
	school := r.Group("/school")
	school.Use(middleware.RequireAuthWithRole("school"))
	{
		school.POST("/vans", controllers.CreateVan)
		school.POST("/students", controllers.CreateStudent)
		school.PATCH("/students/:id/van", controllers.AssignStudentVan)
		school.GET("/students", controllers.ListSchoolStudents)
	}
}
