package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tax-backoffice/internal/api/http/handlers"
	"github.com/spec-kit/tax-backoffice/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Customers      *handlers.CustomersHandler
	Employees      *handlers.EmployeesHandler
	Reviews        *handlers.ReviewsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes for the customer and employee portals.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	customer := app.Group("/customer")
	customer.Post("/register", cfg.Customers.Register)
	customer.Post("/login", cfg.Customers.Login)

	customerAuth := customer.Group("", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	customerAuth.Get("/cdashboard", cfg.Customers.Dashboard)
	customerAuth.Get("/user-services", cfg.Customers.ListServices)
	customerAuth.Get("/user-services/:serviceId", cfg.Customers.GetService)
	customerAuth.Post("/payment-success", cfg.Customers.PaymentSuccess)
	customerAuth.Post("/update-profile", cfg.Customers.UpdateProfile)
	customerAuth.Post("/upload-documents", cfg.Customers.UploadDocuments)
	customerAuth.Post("/sendQuery", cfg.Customers.SendQuery)
	customerAuth.Get("/queries", cfg.Customers.ListQueries)
	customerAuth.Post("/feedback", cfg.Customers.SubmitFeedback)

	employee := app.Group("/employee")
	employee.Post("/login", cfg.Employees.Login)
	employee.Post("/forgot-password", cfg.Employees.ForgotPassword)
	employee.Get("/verify-reset-token/:token", cfg.Employees.VerifyResetToken)
	employee.Post("/reset-password", cfg.Employees.ResetPassword)

	employeeAuth := employee.Group("", cfg.AuthMiddleware.Handle, auth.RequireEmployee())
	employeeAuth.Get("/profile", cfg.Employees.Profile)
	employeeAuth.Put("/update-employee-profile", cfg.Employees.UpdateProfile)
	employeeAuth.Post("/change-password", cfg.Employees.ChangePassword)
	employeeAuth.Get("/emdashboard", cfg.Employees.Dashboard)
	employeeAuth.Post("/update-service-status", cfg.Employees.UpdateServiceStatus)
	employeeAuth.Post("/update-delay-reason", cfg.Employees.UpdateDelayReason)
	employeeAuth.Put("/queries/reply", cfg.Employees.ReplyToQuery)
	employeeAuth.Post("/send-for-l1-review", cfg.Reviews.SendForReview)

	reviewer := employeeAuth.Group("", auth.RequireL1Employee())
	reviewer.Get("/pending-l1-reviews", cfg.Reviews.ListPendingReviews)
	reviewer.Post("/complete-l1-review", cfg.Reviews.CompleteReview)
}
