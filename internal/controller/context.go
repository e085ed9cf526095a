package controller

import (
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// actorFrom arma el Actor con lo que dejó el middleware de auth.
func actorFrom(c *gin.Context) service.Actor {
	id, _ := c.MustGet(middleware.CtxUserID).(primitive.ObjectID)
	return service.Actor{
		ID:   id,
		Role: c.GetString(middleware.CtxUserRole),
	}
}
