package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/travelbook/internal/config"
	"github.com/example/travelbook/internal/handlers"
	"github.com/example/travelbook/internal/middleware"
	"github.com/example/travelbook/internal/models"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, rateStore middleware.RateStore) {
	auth := middleware.NewAuth(cfg.JWTSecret, middleware.GormUserLoader(db))

	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	tripHandler := handlers.NewTripHandler(db)
	paymentHandler := handlers.NewPaymentHandler(db)

	tripOwnership := middleware.RequireOwnership(
		middleware.GormFetch[models.Trip](db), "id")
	paymentOwnership := middleware.RequireOwnership(
		middleware.GormFetch[models.Payment](db), "id")

	api := app.Group("/api")

	// Optional auth runs before the rate limiter so authenticated
	// clients are counted per user rather than per source IP.
	api.Use(auth.Optional)
	api.Use(middleware.RateLimit(rateStore, cfg.RateLimitMax, cfg.RateLimitWindow))

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/profile", auth.Authenticate, authHandler.GetProfile)
	authGroup.Put("/profile", auth.Authenticate, authHandler.UpdateProfile)
	authGroup.Post("/change-password", auth.Authenticate, authHandler.ChangePassword)
	authGroup.Post("/logout", auth.Authenticate, authHandler.Logout)
	authGroup.Delete("/account", auth.Authenticate, authHandler.DeleteAccount)

	// Account administration, owner only
	users := api.Group("/users", auth.Authenticate, middleware.RequireRoles(models.RoleOwner))
	users.Get("/", userHandler.ListUsers)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Get("/:id/stats", userHandler.GetUserStats)

	// Trip routes. Literal segments register before /:id so
	// /stats/overview and /customer/:customerId are never captured as ids.
	trips := api.Group("/trips", auth.Authenticate)
	trips.Get("/", tripHandler.ListTrips)
	trips.Post("/", tripHandler.CreateTrip)
	trips.Get("/stats/overview", tripHandler.TripStatsOverview)
	trips.Get("/customer/:customerId", middleware.RequireRoles(models.RoleOwner, models.RoleAgent), tripHandler.CustomerTrips)
	trips.Get("/:id", tripOwnership, tripHandler.GetTrip)
	trips.Put("/:id", tripOwnership, tripHandler.UpdateTrip)
	trips.Delete("/:id", tripOwnership, tripHandler.DeleteTrip)
	trips.Post("/:id/travelers", tripOwnership, tripHandler.AddTravelers)
	trips.Put("/:id/accommodations", tripOwnership, tripHandler.UpdateAccommodations)
	trips.Put("/:id/itinerary", tripOwnership, tripHandler.UpdateItinerary)

	// Payment routes
	payments := api.Group("/payments", auth.Authenticate)
	payments.Get("/", paymentHandler.ListPayments)
	payments.Post("/", paymentHandler.CreatePayment)
	payments.Post("/bulk", paymentHandler.BulkCreatePayments)
	payments.Get("/stats/overview", paymentHandler.PaymentStatsOverview)
	payments.Get("/trip/:tripId", paymentHandler.TripPayments)
	payments.Get("/:id", paymentOwnership, paymentHandler.GetPayment)
	payments.Put("/:id", paymentOwnership, paymentHandler.UpdatePayment)
	payments.Delete("/:id", paymentOwnership, paymentHandler.DeletePayment)
	payments.Post("/:id/refund", paymentOwnership, paymentHandler.RefundPayment)
}
