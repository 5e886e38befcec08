package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tax-backoffice/internal/domain"
	"github.com/spec-kit/tax-backoffice/internal/events"
	"github.com/spec-kit/tax-backoffice/internal/persistence"
	"github.com/spec-kit/tax-backoffice/internal/repository"
	apperrors "github.com/spec-kit/tax-backoffice/pkg/util"
)

// EmployeeService exposes employee-facing operations outside the review
// workflow: profile, dashboard, service status upkeep and query replies.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	customers  repository.CustomerRepository
	queries    repository.QueryRepository
	cache      *persistence.Redis
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// EmployeeDependencies bundles collaborators for the employee service.
type EmployeeDependencies struct {
	EmployeeRepo repository.EmployeeRepository
	CustomerRepo repository.CustomerRepository
	QueryRepo    repository.QueryRepository
	Cache        *persistence.Redis
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// EmployeeProfile is the reduced view returned to the portal.
type EmployeeProfile struct {
	IsL1Employee bool   `json:"isL1Employee"`
	Name         string `json:"name"`
	Email        string `json:"email"`
}

// EmployeeDashboard aggregates orders assigned to an employee.
type EmployeeDashboard struct {
	AssignedOrders  int `json:"assigned_orders"`
	InProcess       int `json:"in_process"`
	PendingL1Review int `json:"pending_l1_review"`
	Completed       int `json:"completed"`
}

// NewEmployeeService constructs the service.
func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	return &EmployeeService{
		employees:  deps.EmployeeRepo,
		customers:  deps.CustomerRepo,
		queries:    deps.QueryRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Profile returns the employee's portal profile.
func (s *EmployeeService) Profile(ctx context.Context, employeeID string) (*EmployeeProfile, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return &EmployeeProfile{
		IsL1Employee: employee.IsL1Employee,
		Name:         employee.Name,
		Email:        employee.Email,
	}, nil
}

// UpdateProfile updates the employee's own details.
func (s *EmployeeService) UpdateProfile(ctx context.Context, employeeID, name, email string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if name != "" {
		employee.Name = name
	}
	if email != "" {
		employee.Email = email
	}
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

// Dashboard aggregates orders assigned to the employee, cached briefly.
func (s *EmployeeService) Dashboard(ctx context.Context, employeeID string) (*EmployeeDashboard, error) {
	cacheKey := "emdashboard:" + employeeID
	if s.cache != nil && s.cache.Client != nil {
		if raw, err := s.cache.Client.Get(ctx, cacheKey).Bytes(); err == nil {
			var dash EmployeeDashboard
			if err := json.Unmarshal(raw, &dash); err == nil {
				return &dash, nil
			}
		}
	}

	customers, err := s.customers.ListByAssignedEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	dash := &EmployeeDashboard{}
	for ci := range customers {
		for _, order := range customers[ci].Services {
			if order.EmployeeID != employeeID {
				continue
			}
			dash.AssignedOrders++
			switch order.Status {
			case domain.OrderStatusInProcess:
				dash.InProcess++
			case domain.OrderStatusPendingReview:
				dash.PendingL1Review++
			case domain.OrderStatusCompleted:
				dash.Completed++
			}
		}
	}

	if s.cache != nil && s.cache.Client != nil {
		if raw, err := json.Marshal(dash); err == nil {
			if err := s.cache.Client.Set(ctx, cacheKey, raw, dashboardCacheTTL).Err(); err != nil {
				s.logger.Debug("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return dash, nil
}

// UpdateServiceStatus sets a domain status on an order assigned to the
// employee. Review-controlled states are off limits: orders cannot be
// moved into or out of pending-l1-review or completed here; those
// transitions belong to the review workflow.
func (s *EmployeeService) UpdateServiceStatus(ctx context.Context, employeeID, orderID string, status domain.OrderStatus) (*domain.ServiceOrder, error) {
	if status.ReviewControlled() {
		return nil, apperrors.NewValidationError("status is managed by the review workflow", map[string]any{
			"status": string(status),
		})
	}
	if strings.TrimSpace(string(status)) == "" {
		return nil, apperrors.NewValidationError("status required", nil)
	}

	customer, err := s.customers.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
		}
		return nil, apperrors.MapError(err)
	}
	idx := customer.ServiceByOrderID(orderID)
	if idx < 0 {
		return nil, apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
	}

	order := &customer.Services[idx]
	if order.EmployeeID != employeeID {
		return nil, apperrors.NewForbidden("order is not assigned to you")
	}
	if order.Status.ReviewControlled() {
		return nil, apperrors.NewConflict("order is under review workflow control", map[string]any{
			"order_id": orderID,
			"status":   string(order.Status),
		})
	}

	order.Status = status
	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("order was modified concurrently", map[string]any{"order_id": orderID})
		}
		return nil, apperrors.MapError(err)
	}
	return order, nil
}

// UpdateDelayReason records why an assigned order is delayed.
func (s *EmployeeService) UpdateDelayReason(ctx context.Context, employeeID, orderID, reason string) (*domain.ServiceOrder, error) {
	customer, err := s.customers.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
		}
		return nil, apperrors.MapError(err)
	}
	idx := customer.ServiceByOrderID(orderID)
	if idx < 0 {
		return nil, apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
	}

	order := &customer.Services[idx]
	if order.EmployeeID != employeeID {
		return nil, apperrors.NewForbidden("order is not assigned to you")
	}

	order.DelayReason = reason
	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("order was modified concurrently", map[string]any{"order_id": orderID})
		}
		return nil, apperrors.MapError(err)
	}
	return order, nil
}

// ReplyToQuery records an employee answer on a customer query.
func (s *EmployeeService) ReplyToQuery(ctx context.Context, employeeID, queryID, body string) (*domain.CustomerQuery, error) {
	query, err := s.queries.GetQueryByID(ctx, queryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("query", map[string]any{"query_id": queryID})
		}
		return nil, apperrors.MapError(err)
	}

	reply := domain.QueryReply{
		EmployeeID: employeeID,
		Body:       body,
		RepliedAt:  time.Now(),
	}
	if err := s.queries.SetReply(ctx, queryID, reply); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("query", map[string]any{"query_id": queryID})
		}
		return nil, apperrors.MapError(err)
	}
	query.Reply = &reply

	customerEmail := ""
	if customer, err := s.customers.GetByID(ctx, query.CustomerID); err == nil {
		customerEmail = customer.Email
	}
	s.publishEvent(ctx, events.Event{
		Type:  events.EventQueryReplied,
		Actor: employeeActor(employeeID),
		Payload: events.QueryRepliedPayload{
			QueryID:       query.ID,
			CustomerID:    query.CustomerID,
			CustomerEmail: customerEmail,
			Subject:       query.Subject,
			ReplyPreview:  stringPreview(body, 120),
		},
	})
	return query, nil
}

func (s *EmployeeService) publishEvent(ctx context.Context, event events.Event) {
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

// stringPreview truncates on rune boundaries so multi-byte input never
// yields an invalid UTF-8 fragment.
func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
