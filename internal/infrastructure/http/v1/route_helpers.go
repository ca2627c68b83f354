// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "medstore/internal/core/context"
	"medstore/internal/infrastructure/http/v1/middleware"
)

// Role sets of the API. Admin passes every check.
var (
	rolesWrite   = []string{appctx.RoleManager, appctx.RolePharmacist}
	rolesManager = []string{appctx.RoleManager}
)

// EntityRouteHandler is implemented by handlers of plain directory entities.
type EntityRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterEntityRoutes registers standard CRUD routes. Reads are open to every
// authenticated role, writes need one of writeRoles.
//
// Usage:
//
//	handler := handlers.NewSupplierHandler(base, cfg.Suppliers)
//	RegisterEntityRoutes(protected.Group("/suppliers"), handler, rolesManager)
func RegisterEntityRoutes(group *gin.RouterGroup, handler EntityRouteHandler, writeRoles []string) {
	write := middleware.RequireRole(writeRoles...)

	group.GET("", handler.List)
	group.POST("", write, handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", write, handler.Update)
	group.DELETE("/:id", write, handler.Delete)
}
