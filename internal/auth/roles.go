package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tax-backoffice/internal/domain"
)

// RequireCustomer ensures a customer is authenticated.
func RequireCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeCustomer || principal.Customer == nil {
			return fiber.NewError(http.StatusForbidden, "customer required")
		}
		return c.Next()
	}
}

// RequireEmployee ensures an employee is authenticated.
func RequireEmployee() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeEmployee || principal.Employee == nil {
			return fiber.NewError(http.StatusForbidden, "employee required")
		}
		return c.Next()
	}
}

// RequireL1Employee ensures the authenticated employee is an L1 reviewer.
func RequireL1Employee() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeEmployee || principal.Employee == nil {
			return fiber.NewError(http.StatusForbidden, "employee required")
		}
		if !principal.Employee.IsL1Employee {
			return fiber.NewError(http.StatusForbidden, "L1 reviewer required")
		}
		return c.Next()
	}
}
