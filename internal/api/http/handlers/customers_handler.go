package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tax-backoffice/internal/api/dto"
	"github.com/spec-kit/tax-backoffice/internal/auth"
	"github.com/spec-kit/tax-backoffice/internal/config"
	"github.com/spec-kit/tax-backoffice/internal/domain"
	"github.com/spec-kit/tax-backoffice/internal/service"
)

// CustomersHandler exposes the customer portal endpoints.
type CustomersHandler struct {
	authService *service.AuthService
	customers   *service.CustomerService
	uploads     config.UploadConfig
	validator   *validator.Validate
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(authService *service.AuthService, customers *service.CustomerService, uploads config.UploadConfig) *CustomersHandler {
	return &CustomersHandler{
		authService: authService,
		customers:   customers,
		uploads:     uploads,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register handles POST /customer/register.
func (h *CustomersHandler) Register(c *fiber.Ctx) error {
	var req dto.CustomerRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	customer, token, exp, err := h.authService.RegisterCustomer(c.UserContext(), req.Name, req.Email, req.Password, req.Phone)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"customer": fiber.Map{
			"id":    customer.ID,
			"name":  customer.Name,
			"email": customer.Email,
		},
		"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}

// Login handles POST /customer/login.
func (h *CustomersHandler) Login(c *fiber.Ctx) error {
	var req dto.CustomerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	customer, token, exp, err := h.authService.LoginCustomer(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"customer": fiber.Map{
			"id":    customer.ID,
			"name":  customer.Name,
			"email": customer.Email,
		},
		"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}

// Dashboard handles GET /customer/cdashboard.
func (h *CustomersHandler) Dashboard(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	dash, err := h.customers.Dashboard(c.UserContext(), principal.Customer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "dashboard": dash})
}

// ListServices handles GET /customer/user-services.
func (h *CustomersHandler) ListServices(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	services, err := h.customers.ListServices(c.UserContext(), principal.Customer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "services": services})
}

// GetService handles GET /customer/user-services/:serviceId.
func (h *CustomersHandler) GetService(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	order, err := h.customers.GetService(c.UserContext(), principal.Customer.ID, c.Params("serviceId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "service": order})
}

// PaymentSuccess handles POST /customer/payment-success.
func (h *CustomersHandler) PaymentSuccess(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.PaymentSuccessRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	order, err := h.customers.RecordPayment(c.UserContext(), principal.Customer.ID, req.OrderID, req.AmountPaise)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "service": order})
}

// UpdateProfile handles POST /customer/update-profile.
func (h *CustomersHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.UpdateCustomerProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	customer, err := h.customers.UpdateProfile(c.UserContext(), principal.Customer.ID, req.Name, req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"customer": fiber.Map{
			"id":    customer.ID,
			"name":  customer.Name,
			"email": customer.Email,
			"phone": customer.Phone,
		},
	})
}

// UploadDocuments handles POST /customer/upload-documents (multipart).
func (h *CustomersHandler) UploadDocuments(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	orderID := c.FormValue("orderId")
	if orderID == "" {
		return fiber.NewError(http.StatusBadRequest, "orderId required")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "multipart form required")
	}
	files := form.File["documents"]
	if len(files) == 0 {
		return fiber.NewError(http.StatusBadRequest, "no documents provided")
	}

	if err := os.MkdirAll(h.uploads.Dir, 0o755); err != nil {
		return err
	}

	docs := make([]domain.DocumentRef, 0, len(files))
	for _, file := range files {
		if h.uploads.MaxFileBytes > 0 && file.Size > h.uploads.MaxFileBytes {
			return fiber.NewError(http.StatusBadRequest,
				fmt.Sprintf("file %s exceeds size limit", file.Filename))
		}
		storageKey := filepath.Join(h.uploads.Dir,
			fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(file.Filename)))
		if err := c.SaveFile(file, storageKey); err != nil {
			return err
		}
		docs = append(docs, domain.DocumentRef{
			StorageKey: storageKey,
			FileName:   file.Filename,
			MimeType:   file.Header.Get("Content-Type"),
			SizeBytes:  file.Size,
			UploadedAt: time.Now(),
		})
	}

	order, err := h.customers.AttachDocuments(c.UserContext(), principal.Customer.ID, orderID, docs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "service": order})
}

// SendQuery handles POST /customer/sendQuery.
func (h *CustomersHandler) SendQuery(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.SendQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	query, err := h.customers.SendQuery(c.UserContext(), principal.Customer.ID, req.ServiceID, req.Subject, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true, "query": query})
}

// ListQueries handles GET /customer/queries.
func (h *CustomersHandler) ListQueries(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	queries, err := h.customers.ListQueries(c.UserContext(), principal.Customer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "queries": queries})
}

// SubmitFeedback handles POST /customer/feedback.
func (h *CustomersHandler) SubmitFeedback(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	feedback, err := h.customers.SubmitFeedback(c.UserContext(), principal.Customer.ID, req.Rating, req.Comments)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true, "feedback": feedback})
}
