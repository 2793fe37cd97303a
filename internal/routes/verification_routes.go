package routes

import (
	"shule_tracker/internal/controllers"
	"shule_tracker/internal/middleware"

	"github.com/gin-gonic/gin"
)

func VerificationRoutes(r *gin.Engine) {
	students := r.Group("/students")
	students.Use(middleware.RequireAuthWithRole("operator"))
	{
		students.POST("/:id/verify", controllers.VerifyStudent)
	}
}
