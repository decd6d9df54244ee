package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/openagora/agora/api/handlers"
)

// StartServer builds the router and blocks serving HTTP on the given port.
func StartServer(h *handlers.Handler, port int) error {
	router := gin.Default()
	SetupRoutes(router, h)
	return router.Run(fmt.Sprintf(":%d", port))
}
