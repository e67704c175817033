package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"elearning/backend/config"
	"elearning/backend/controllers"
	"elearning/backend/media"
	"elearning/backend/middleware"
	"elearning/backend/services"
	"elearning/backend/utils"
)

// NewApp builds the fiber app with the global middleware stack. metrics may be nil.
func NewApp(cfg *config.Config, logger *zap.SugaredLogger, metrics *middleware.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "learning-platform",
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: utils.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.TokenHeader,
	}))
	app.Use(middleware.LoggingMiddleware(logger))
	if metrics != nil {
		app.Use(metrics.Handler())
		app.Get("/metrics", metrics.Endpoint())
	}
	return app
}

func SetupRoutes(app *fiber.App, cfg *config.Config, svc *services.Services, storage media.Storage, limiter *middleware.RateLimiter, logger *zap.SugaredLogger) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Server is running")
	})
	if cfg.StorageDriver == "local" {
		app.Static("/"+media.URLPrefix, cfg.UploadDir)
	}

	isAuth := middleware.IsAuth(svc.Users)
	rateLimit := limiter.Handler()
	imageUpload := middleware.Upload(storage, media.KindImage, logger)
	videoUpload := middleware.Upload(storage, media.KindVideo, logger)

	// Payment gateway routes
	paymentController := controllers.NewPaymentController(svc.Payments)
	app.Post("/api/create-payment-link", rateLimit, paymentController.CreatePaymentLink)
	app.Post("/receive-hook", paymentController.ReceiveHook)

	api := app.Group("/api")

	// Auth routes
	authController := controllers.NewAuthController(svc.Users)
	api.Post("/user/register", rateLimit, authController.Register)
	api.Post("/user/verify", rateLimit, authController.Verify)
	api.Post("/user/login", rateLimit, authController.Login)
	api.Post("/user/forgot", rateLimit, authController.ForgotPassword)
	api.Post("/user/reset", rateLimit, authController.ResetPassword)

	// User routes
	userController := controllers.NewUserController(svc.Courses, svc.Admin)
	api.Get("/user/me", isAuth, userController.GetProfile)
	api.Get("/mycourse", isAuth, userController.GetMyCourses)

	// Progress routes
	progressController := controllers.NewProgressController(svc.Progress)
	api.Post("/user/progress", isAuth, progressController.AddProgress)
	api.Get("/user/progress", isAuth, progressController.GetProgress)

	// Courses routes
	coursesController := controllers.NewCoursesController(svc.Courses)
	api.Get("/course/all", coursesController.GetAllCourses)
	api.Get("/course/:id", coursesController.GetCourseDetails)
	api.Get("/lectures/:id", isAuth, coursesController.GetLectures)
	api.Get("/lecture/:id", isAuth, coursesController.GetLecture)
	api.Post("/course/checkout/:id", isAuth, paymentController.Checkout)
	api.Post("/verification/:id", isAuth, paymentController.PaymentVerification)

	// Admin routes
	analyticsController := controllers.NewAnalyticsController(svc.Admin)
	api.Post("/course/new", isAuth, middleware.IsAdmin, imageUpload, coursesController.CreateCourse)
	api.Post("/course/:id", isAuth, middleware.IsAdmin, videoUpload, coursesController.AddLecture)
	api.Delete("/course/:id", isAuth, middleware.IsAdmin, coursesController.DeleteCourse)
	api.Delete("/lecture/:id", isAuth, middleware.IsAdmin, coursesController.DeleteLecture)
	api.Get("/stats", isAuth, middleware.IsAdmin, analyticsController.GetStats)
	api.Get("/users", isAuth, middleware.IsAdmin, userController.GetAllUsers)
	api.Put("/user/:id", isAuth, middleware.IsSuperAdmin, userController.UpdateRole)
}
