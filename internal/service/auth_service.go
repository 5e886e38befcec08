package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tax-backoffice/internal/auth"
	"github.com/spec-kit/tax-backoffice/internal/config"
	"github.com/spec-kit/tax-backoffice/internal/domain"
	"github.com/spec-kit/tax-backoffice/internal/events"
	"github.com/spec-kit/tax-backoffice/internal/mail"
	"github.com/spec-kit/tax-backoffice/internal/repository"
)

// AuthSubject identifies the caller when changing password.
type AuthSubject struct {
	Type domain.SubjectType
	ID   string
}

// AuthService coordinates registration, login and credential recovery.
type AuthService struct {
	customers  repository.CustomerRepository
	employees  repository.EmployeeRepository
	resets     repository.PasswordResetRepository
	gateway    mail.Gateway
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	CustomerRepo      repository.CustomerRepository
	EmployeeRepo      repository.EmployeeRepository
	PasswordResetRepo repository.PasswordResetRepository
	Gateway           mail.Gateway
	Dispatcher        events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		customers:  deps.CustomerRepo,
		employees:  deps.EmployeeRepo,
		resets:     deps.PasswordResetRepo,
		gateway:    deps.Gateway,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterCustomer creates a new customer account and queues the welcome mail.
func (s *AuthService) RegisterCustomer(ctx context.Context, name, email, password, phone string) (*domain.Customer, string, time.Time, error) {
	if _, err := s.customers.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, errors.New("email already registered")
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	customer := &domain.Customer{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(customer.ID, domain.SubjectTypeCustomer)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventCustomerRegistered,
		Actor: customerActor(customer.ID),
		Payload: events.CustomerRegisteredPayload{
			CustomerID: customer.ID,
			Name:       customer.Name,
			Email:      customer.Email,
		},
	})
	return customer, token, exp, nil
}

// LoginCustomer authenticates a customer.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*domain.Customer, string, time.Time, error) {
	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(customer.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(customer.ID, domain.SubjectTypeCustomer)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return customer, token, exp, nil
}

// LoginEmployee authenticates an employee.
func (s *AuthService) LoginEmployee(ctx context.Context, email, password string) (*domain.Employee, string, time.Time, error) {
	employee, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if !employee.Active {
		return nil, "", time.Time{}, errors.New("employee inactive")
	}
	if err := auth.ComparePassword(employee.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(employee.ID, domain.SubjectTypeEmployee)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return employee, token, exp, nil
}

// RequestPasswordReset persists a reset token for either a customer or an
// employee email and mails it through the PASSWORD_RESET template.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	subjectType := domain.SubjectTypeCustomer
	subjectID := ""
	name := ""

	if customer, err := s.customers.GetByEmail(ctx, email); err == nil {
		subjectID = customer.ID
		name = customer.Name
	} else if errors.Is(err, pgx.ErrNoRows) {
		employee, empErr := s.employees.GetByEmail(ctx, email)
		if empErr != nil {
			return nil, empErr
		}
		subjectType = domain.SubjectTypeEmployee
		subjectID = employee.ID
		name = employee.Name
	} else {
		return nil, err
	}

	token := &repository.PasswordResetToken{
		SubjectType: string(subjectType),
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}

	if s.gateway != nil {
		if _, err := s.gateway.SendTemplate(ctx, mail.TemplateRequest{
			To:       email,
			Name:     name,
			Category: mail.CategoryPasswordReset,
			TemplateData: map[string]any{
				"name":        name,
				"reset_token": token.Token,
				"expires_at":  token.ExpiresAt.Format(time.RFC3339),
			},
		}); err != nil {
			return nil, err
		}
	}
	return token, nil
}

// VerifyResetToken checks a reset token is known, unused and unexpired.
func (s *AuthService) VerifyResetToken(ctx context.Context, tokenStr string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return errors.New("token expired or used")
	}
	return nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return errors.New("token expired or used")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch domain.SubjectType(token.SubjectType) {
	case domain.SubjectTypeCustomer:
		customer, err := s.customers.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		customer.PasswordHash = hash
		if err := s.customers.Save(ctx, customer); err != nil {
			return err
		}
	case domain.SubjectTypeEmployee:
		employee, err := s.employees.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		employee.PasswordHash = hash
		if err := s.employees.Update(ctx, employee); err != nil {
			return err
		}
	default:
		return errors.New("unknown subject type")
	}

	return s.resets.MarkUsed(ctx, token.ID)
}

// ChangePassword verifies the current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, subject AuthSubject, currentPassword, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch subject.Type {
	case domain.SubjectTypeCustomer:
		customer, err := s.customers.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(customer.PasswordHash, currentPassword); err != nil {
			return errors.New("invalid credentials")
		}
		customer.PasswordHash = hash
		return s.customers.Save(ctx, customer)
	case domain.SubjectTypeEmployee:
		employee, err := s.employees.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(employee.PasswordHash, currentPassword); err != nil {
			return errors.New("invalid credentials")
		}
		employee.PasswordHash = hash
		return s.employees.Update(ctx, employee)
	default:
		return errors.New("unknown subject")
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
