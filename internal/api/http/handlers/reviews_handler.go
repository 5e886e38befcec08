package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tax-backoffice/internal/api/dto"
	"github.com/spec-kit/tax-backoffice/internal/auth"
	"github.com/spec-kit/tax-backoffice/internal/domain"
	"github.com/spec-kit/tax-backoffice/internal/service"
	apperrors "github.com/spec-kit/tax-backoffice/pkg/util"
)

// ReviewsHandler exposes the L1 review workflow endpoints.
type ReviewsHandler struct {
	reviews   *service.ReviewService
	validator *validator.Validate
}

// NewReviewsHandler constructs handler.
func NewReviewsHandler(reviews *service.ReviewService) *ReviewsHandler {
	return &ReviewsHandler{
		reviews:   reviews,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ListPendingReviews handles GET /employee/pending-l1-reviews.
// The reviewer is the authenticated employee; an employeeId query param is
// accepted for compatibility but must match the caller.
func (h *ReviewsHandler) ListPendingReviews(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	reviewerID := principal.Employee.ID
	if param := c.Query("employeeId"); param != "" && param != reviewerID {
		return apperrors.NewForbidden("cannot list reviews for another employee")
	}

	items, err := h.reviews.ListPendingReviews(c.UserContext(), reviewerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "pendingReviews": items})
}

// CompleteReview handles POST /employee/complete-l1-review.
func (h *ReviewsHandler) CompleteReview(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CompleteReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.L1EmployeeID != "" && req.L1EmployeeID != principal.Employee.ID {
		return apperrors.NewForbidden("cannot review on behalf of another employee")
	}

	order, err := h.reviews.CompleteReview(c.UserContext(), service.CompleteReviewInput{
		OrderID:      req.OrderID,
		Decision:     domain.ReviewDecision(req.Decision),
		CustomerID:   req.CustomerID,
		ServiceID:    req.ServiceID,
		L1EmployeeID: principal.Employee.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "service": order})
}

// SendForReview handles POST /employee/send-for-l1-review.
func (h *ReviewsHandler) SendForReview(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.SendForReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	order, err := h.reviews.SendForReview(c.UserContext(), req.OrderID, principal.Employee.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "service": order})
}
