package http

import "github.com/labstack/echo/v4"

// Handler is anything that can attach its routes to the echo instance.
// The server accepts the interface so the API layer stays decoupled from
// server construction.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
