package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tax-backoffice/internal/domain"
	"github.com/spec-kit/tax-backoffice/internal/events"
	"github.com/spec-kit/tax-backoffice/internal/repository"
	apperrors "github.com/spec-kit/tax-backoffice/pkg/util"
)

// revisionRequestedNote is stamped on orders an L1 reviewer sends back.
const revisionRequestedNote = "Sent back for revision"

// ReviewService coordinates the L1 escalation workflow: submitting orders
// for review, listing a reviewer's queue and recording decisions.
type ReviewService struct {
	customers  repository.CustomerRepository
	employees  repository.EmployeeRepository
	dispatcher events.Dispatcher
}

// ReviewDependencies bundles collaborators for the review service.
type ReviewDependencies struct {
	CustomerRepo repository.CustomerRepository
	EmployeeRepo repository.EmployeeRepository
	Dispatcher   events.Dispatcher
}

// CompleteReviewInput describes a reviewer decision.
type CompleteReviewInput struct {
	OrderID      string
	Decision     domain.ReviewDecision
	CustomerID   string
	ServiceID    string
	L1EmployeeID string
}

// NewReviewService constructs the service.
func NewReviewService(deps ReviewDependencies) *ReviewService {
	return &ReviewService{
		customers:  deps.CustomerRepo,
		employees:  deps.EmployeeRepo,
		dispatcher: deps.Dispatcher,
	}
}

// ListPendingReviews returns every order awaiting review whose assigned
// employee reports to the given reviewer. Read-only; an order whose
// employee cannot be resolved is skipped, never fatal. Ordering follows
// store iteration and is not guaranteed.
func (s *ReviewService) ListPendingReviews(ctx context.Context, reviewerEmployeeID string) ([]domain.ReviewItem, error) {
	customers, err := s.customers.ListWithPendingReviews(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	items := []domain.ReviewItem{}
	resolved := map[string]*domain.Employee{}

	for ci := range customers {
		customer := &customers[ci]
		for _, order := range customer.Services {
			if order.Status != domain.OrderStatusPendingReview || order.EmployeeID == "" {
				continue
			}
			employee, ok := resolved[order.EmployeeID]
			if !ok {
				employee, err = s.employees.GetByID(ctx, order.EmployeeID)
				if err != nil {
					// missing or unreadable employee excludes the order
					resolved[order.EmployeeID] = nil
					continue
				}
				resolved[order.EmployeeID] = employee
			}
			if employee == nil || employee.L1EmpCode != reviewerEmployeeID {
				continue
			}

			name := employee.Name
			if name == "" {
				name = "Unknown"
			}
			sentAt := time.Now()
			if order.SentForReviewAt != nil {
				sentAt = *order.SentForReviewAt
			}
			items = append(items, domain.ReviewItem{
				OrderID:         order.OrderID,
				ServiceName:     order.ServiceName(),
				CustomerID:      customer.ID,
				ServiceID:       order.ServiceID,
				EmployeeID:      order.EmployeeID,
				EmployeeName:    name,
				SentForReviewAt: sentAt,
				Documents:       order.Documents,
			})
		}
	}
	return items, nil
}

// CompleteReview records an L1 decision on a pending order. Approval
// completes the order and stamps CompletedAt exactly once; anything else
// returns it to in-process with a revision note. Only orders currently in
// pending-l1-review can be decided; a decided or concurrently-decided
// order surfaces Conflict.
func (s *ReviewService) CompleteReview(ctx context.Context, input CompleteReviewInput) (*domain.ServiceOrder, error) {
	customer, err := s.customers.GetByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"order_id": input.OrderID})
		}
		return nil, apperrors.MapError(err)
	}

	idx := customer.ServiceByOrderID(input.OrderID)
	if idx < 0 {
		return nil, apperrors.NewNotFound("service", map[string]any{"order_id": input.OrderID})
	}
	order := &customer.Services[idx]

	employee, err := s.employees.GetByID(ctx, order.EmployeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewForbidden("you are not authorized to review this order")
		}
		return nil, apperrors.MapError(err)
	}
	if employee.L1EmpCode != input.L1EmployeeID {
		return nil, apperrors.NewForbidden("you are not authorized to review this order")
	}

	next := domain.OrderStatusInProcess
	if input.Decision == domain.ReviewDecisionApproved {
		next = domain.OrderStatusCompleted
	}
	if !domain.CanTransition(order.Status, next) {
		return nil, apperrors.NewConflict("order is not pending review", map[string]any{
			"order_id": order.OrderID,
			"status":   string(order.Status),
		})
	}

	if next == domain.OrderStatusCompleted {
		now := time.Now()
		order.Status = domain.OrderStatusCompleted
		order.CompletedAt = &now
	} else {
		order.Status = domain.OrderStatusInProcess
		order.L1ReviewNotes = revisionRequestedNote
	}

	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("order was modified concurrently", map[string]any{
				"order_id": order.OrderID,
			})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventReviewCompleted,
		OrderID: order.OrderID,
		Actor:   employeeActor(input.L1EmployeeID),
		Payload: events.ReviewCompletedPayload{
			CustomerID:    customer.ID,
			CustomerEmail: customer.Email,
			CustomerName:  customer.Name,
			ServiceName:   order.ServiceName(),
			Decision:      input.Decision,
		},
	})
	return order, nil
}

// SendForReview escalates an in-process order to the submitting employee's
// L1 reviewer. The employee must have a supervising reviewer configured.
func (s *ReviewService) SendForReview(ctx context.Context, orderID, employeeID string) (*domain.ServiceOrder, error) {
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

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"employee_id": employeeID})
		}
		return nil, apperrors.MapError(err)
	}
	if employee.L1EmpCode == "" {
		return nil, apperrors.NewValidationError("employee has no L1 reviewer assigned", map[string]any{
			"employee_id": employeeID,
		})
	}

	if !domain.CanTransition(order.Status, domain.OrderStatusPendingReview) {
		return nil, apperrors.NewConflict("order cannot be sent for review in current status", map[string]any{
			"order_id": order.OrderID,
			"status":   string(order.Status),
		})
	}

	now := time.Now()
	order.Status = domain.OrderStatusPendingReview
	order.SentForReviewAt = &now
	order.EmployeeID = employeeID

	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("order was modified concurrently", map[string]any{
				"order_id": order.OrderID,
			})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderSentForReview,
		OrderID: order.OrderID,
		Actor:   employeeActor(employeeID),
		Payload: events.OrderSentForReviewPayload{
			CustomerID:  customer.ID,
			EmployeeID:  employeeID,
			L1EmpCode:   employee.L1EmpCode,
			ServiceName: order.ServiceName(),
		},
	})
	return order, nil
}

func (s *ReviewService) publishEvent(ctx context.Context, event events.Event) {
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

func customerActor(customerID string) events.Actor {
	return events.Actor{
		Type:       domain.SubjectTypeCustomer,
		CustomerID: &customerID,
	}
}

func employeeActor(employeeID string) events.Actor {
	return events.Actor{
		Type:       domain.SubjectTypeEmployee,
		EmployeeID: &employeeID,
	}
}
