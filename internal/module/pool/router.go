package pool

import "github.com/gin-gonic/gin"

type Router struct{}

func (Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/pool")
	{
		v1.GET("/jobs", HandlerGetJobs)   // GET /api/v1/pool/jobs?prefix=experiments.nova.
		v1.GET("/slots", HandlerGetSlots) // GET /api/v1/pool/slots
	}
}
