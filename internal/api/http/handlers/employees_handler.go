package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tax-backoffice/internal/api/dto"
	"github.com/spec-kit/tax-backoffice/internal/auth"
	"github.com/spec-kit/tax-backoffice/internal/domain"
	"github.com/spec-kit/tax-backoffice/internal/service"
)

// EmployeesHandler exposes the employee portal endpoints.
type EmployeesHandler struct {
	authService *service.AuthService
	employees   *service.EmployeeService
	validator   *validator.Validate
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(authService *service.AuthService, employees *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{
		authService: authService,
		employees:   employees,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Login handles POST /employee/login.
func (h *EmployeesHandler) Login(c *fiber.Ctx) error {
	var req dto.EmployeeLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	employee, token, exp, err := h.authService.LoginEmployee(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"employee": fiber.Map{
			"id":           employee.ID,
			"name":         employee.Name,
			"email":        employee.Email,
			"isL1Employee": employee.IsL1Employee,
		},
		"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}

// Profile handles GET /employee/profile.
func (h *EmployeesHandler) Profile(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	profile, err := h.employees.Profile(c.UserContext(), principal.Employee.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"isL1Employee": profile.IsL1Employee,
		"name":         profile.Name,
		"email":        profile.Email,
	})
}

// UpdateProfile handles PUT /employee/update-employee-profile.
func (h *EmployeesHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.UpdateEmployeeProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	employee, err := h.employees.UpdateProfile(c.UserContext(), principal.Employee.ID, req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"employee": fiber.Map{
			"id":    employee.ID,
			"name":  employee.Name,
			"email": employee.Email,
		},
	})
}

// Dashboard handles GET /employee/emdashboard.
func (h *EmployeesHandler) Dashboard(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	dash, err := h.employees.Dashboard(c.UserContext(), principal.Employee.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "dashboard": dash})
}

// UpdateServiceStatus handles POST /employee/update-service-status.
func (h *EmployeesHandler) UpdateServiceStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.UpdateServiceStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	order, err := h.employees.UpdateServiceStatus(c.UserContext(), principal.Employee.ID, req.OrderID, domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "service": order})
}

// UpdateDelayReason handles POST /employee/update-delay-reason.
func (h *EmployeesHandler) UpdateDelayReason(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.UpdateDelayReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	order, err := h.employees.UpdateDelayReason(c.UserContext(), principal.Employee.ID, req.OrderID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "service": order})
}

// ReplyToQuery handles PUT /employee/queries/reply.
func (h *EmployeesHandler) ReplyToQuery(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.ReplyQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	query, err := h.employees.ReplyToQuery(c.UserContext(), principal.Employee.ID, req.QueryID, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "query": query})
}

// ForgotPassword handles POST /employee/forgot-password.
func (h *EmployeesHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	token, err := h.authService.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"success":    true,
		"message":    "reset email sent",
		"expires_at": token.ExpiresAt,
	})
}

// VerifyResetToken handles GET /employee/verify-reset-token/:token.
func (h *EmployeesHandler) VerifyResetToken(c *fiber.Ctx) error {
	if err := h.authService.VerifyResetToken(c.UserContext(), c.Params("token")); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid or expired token")
	}
	return c.JSON(fiber.Map{"success": true, "valid": true})
}

// ResetPassword handles POST /employee/reset-password.
func (h *EmployeesHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "message": "password updated"})
}

// ChangePassword handles POST /employee/change-password.
func (h *EmployeesHandler) ChangePassword(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	subject := service.AuthSubject{Type: principal.SubjectType, ID: principal.Employee.ID}
	if err := h.authService.ChangePassword(c.UserContext(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "message": "password updated"})
}
