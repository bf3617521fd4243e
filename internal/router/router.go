package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classtrack-api/internal/config"
	"github.com/noah-isme/classtrack-api/internal/handler"
	"github.com/noah-isme/classtrack-api/internal/middleware"
	"github.com/noah-isme/classtrack-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AttendanceHandler *handler.AttendanceHandler
	SubmissionHandler *handler.SubmissionHandler
	QuizHandler       *handler.QuizHandler
	StandingHandler   *handler.StandingHandler
	RosterHandler     *handler.RosterHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	authed := api.Group("", jwtMiddleware)
	teacher := authed.Group("", middleware.RequireRole(middleware.RoleTeacher))
	student := authed.Group("", middleware.RequireRole(middleware.RoleStudent))

	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.RegisterTeacher(teacher)
		deps.AttendanceHandler.Register(authed)
	}

	if deps.SubmissionHandler != nil {
		submitLimited := student.Group("", middleware.RateLimit("submission", 10, time.Minute))
		deps.SubmissionHandler.RegisterStudent(submitLimited)
		deps.SubmissionHandler.RegisterTeacher(teacher)
	}

	if deps.QuizHandler != nil {
		attemptLimited := student.Group("", middleware.RateLimit("quiz_attempt", 10, time.Minute))
		deps.QuizHandler.RegisterStudent(attemptLimited)
		deps.QuizHandler.RegisterTeacher(teacher)
		deps.QuizHandler.Register(authed)
	}

	if deps.StandingHandler != nil {
		deps.StandingHandler.Register(authed)
	}

	if deps.RosterHandler != nil {
		deps.RosterHandler.RegisterTeacher(teacher)
	}
}
