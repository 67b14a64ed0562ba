package echoapi

import (
	"github.com/labstack/echo/v4"

	pushsvc "github.com/prajin1910/eval/services/push"
)

// registerWsAPI exposes the realtime endpoint. Clients connect once per
// user and receive pushes for every channel on the same socket.
func registerWsAPI(e *echo.Echo, hub *pushsvc.Hub) {
	e.GET("/ws/:user_id", func(ctx echo.Context) error {
		return hub.ServeUser(ctx.Param("user_id"), ctx.Response(), ctx.Request())
	})
}
