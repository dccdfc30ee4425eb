package http

import "github.com/gin-gonic/gin"

// Module is a feature area that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups a module may mount on.
// Public is rate limited; Protected additionally requires a valid access token.
type RouterContext struct {
	Public    *gin.RouterGroup
	Protected *gin.RouterGroup
}
