package handler

import (
	"github.com/gofiber/fiber/v2"

	"blogapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, p Pinger, svc service.PostService) {
	app.Get("/health", HealthCheck(p))
	app.Get("/healthz", LivenessProbe())

	app.Get("/posts", ListPosts(svc))
	app.Post("/posts", CreatePost(svc))
	app.Get("/posts/:id", GetPost(svc))
	app.Put("/posts/:id", UpdatePost(svc))
	app.Delete("/posts/:id", DeletePost(svc))
}
