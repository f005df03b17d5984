package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/damage-service/internal/api/http/handlers"
	"github.com/roadwatch/damage-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Predict        *handlers.PredictHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/predict", cfg.Predict.Predict)
	app.Post("/predict_frame", cfg.Predict.PredictFrame)
	app.Get("/outputs/:name", cfg.Predict.Output)
	app.Get("/models/info", cfg.Predict.ModelInfo)

	api := app.Group("/api")
	api.Post("/register", cfg.Users.Register)
	api.Post("/login", cfg.Users.Login)
	api.Post("/verify", cfg.Users.Verify)

	tickets := api.Group("/tickets")
	protected := tickets.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/create", cfg.Tickets.Create)
	// "/my" is registered before ":id" so the literal path wins.
	protected.Post("/my", cfg.Tickets.ListMine)

	admin := tickets.Group("", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/all", cfg.Tickets.ListAll)
	admin.Post("/:id/update", cfg.Tickets.Update)

	tickets.Get("/:id", cfg.Tickets.Get)

	dashboard := api.Group("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	dashboard.Post("/stats", cfg.Dashboard.Stats)
}
