package routes

import (
	"shule_tracker/internal/controllers"
	"shule_tracker/internal/middleware"

	"github.com/gin-gonic/gin"
)

func OperatorRoutes(r *gin.Engine) {
	operator := r.Group("/operator")
	operator.Use(middleware.RequireAuthWithRole("operator"))
	{
		operator.POST("/vans/:id/finish", controllers.FinishRoute)
		operator.GET("/vans/:id/trail", controllers.GetTrail)
	}
}
