package console

import "github.com/gofiber/fiber/v2"

// RegisterAuthRoutes registers the unauthenticated auth endpoints.
func RegisterAuthRoutes(app *fiber.App, h *Handler) {
	auth := app.Group("/api/auth")
	auth.Post("/login", h.Login)
	auth.Post("/otp/validate", h.ValidateOTP)
	auth.Post("/otp/resend", h.ResendOTP)
}

// RegisterRoutes registers the session-protected console endpoints.
func RegisterRoutes(app *fiber.App, h *Handler, sessionMW fiber.Handler) {
	auth := app.Group("/api/auth", sessionMW)
	auth.Post("/refresh", h.RefreshSession)
	auth.Post("/logout", h.Logout)

	api := app.Group("/api", sessionMW)
	api.Get("/dashboard/summary", h.Dashboard)
	api.Get("/screens", h.Screens)

	s := api.Group("/screens/:screen")
	s.Get("/", h.List)
	s.Get("/export", h.Export)
	s.Get("/options", h.Options)
	s.Put("/filters", h.ApplyFilters)
	s.Delete("/filters", h.ClearFilters)
	s.Post("/", h.Create)
	s.Get("/rows/:id", h.GetByID)
	s.Put("/rows/:id", h.Update)
	s.Delete("/rows/:id", h.Delete)
	s.Post("/rows/:id/expand", h.ToggleExpand)
	s.Post("/rows/:id/child-page", h.ChildPage)
	s.Post("/rows/:id/child-refresh", h.ChildRefresh)
	s.Post("/rows/:id/toggle-activate", h.ToggleActivate)
	s.Post("/rows/:id/approve", h.Decide(true))
	s.Post("/rows/:id/reject", h.Decide(false))
	s.Get("/rows/:id/qrcode", h.QRCode)
	s.Post("/menu/:row/toggle", h.MenuToggle)
	s.Post("/menu/outside-click", h.MenuOutsideClick)
}
