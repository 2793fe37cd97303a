package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.New()

	// Recovery and request logging apply to every route below.
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())

	AuthRoutes(r)
	VerificationRoutes(r)
	OperatorRoutes(r)
	GuardianRoutes(r)
	SchoolRoutes(r)
	AdminRoutes(r)
	WebSocketRoutes(r)

	return r
}
