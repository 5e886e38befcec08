package service

import (
	"context"
	"encoding/json"
	"errors"
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

const dashboardCacheTTL = 30 * time.Second

// CustomerService exposes the customer-facing operations: dashboard,
// services, document uploads, queries and payments.
type CustomerService struct {
	customers  repository.CustomerRepository
	queries    repository.QueryRepository
	cache      *persistence.Redis
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CustomerDependencies bundles collaborators for the customer service.
type CustomerDependencies struct {
	CustomerRepo repository.CustomerRepository
	QueryRepo    repository.QueryRepository
	Cache        *persistence.Redis
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// CustomerDashboard aggregates a customer's order counts.
type CustomerDashboard struct {
	TotalServices   int `json:"total_services"`
	InProcess       int `json:"in_process"`
	PendingL1Review int `json:"pending_l1_review"`
	Completed       int `json:"completed"`
	DocumentCount   int `json:"document_count"`
}

// NewCustomerService constructs the service.
func NewCustomerService(deps CustomerDependencies) *CustomerService {
	return &CustomerService{
		customers:  deps.CustomerRepo,
		queries:    deps.QueryRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Dashboard returns the customer's aggregate view, cached briefly in Redis.
func (s *CustomerService) Dashboard(ctx context.Context, customerID string) (*CustomerDashboard, error) {
	cacheKey := "cdashboard:" + customerID
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		var dash CustomerDashboard
		if err := json.Unmarshal(cached, &dash); err == nil {
			return &dash, nil
		}
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", nil)
		}
		return nil, apperrors.MapError(err)
	}

	dash := &CustomerDashboard{TotalServices: len(customer.Services)}
	for _, order := range customer.Services {
		switch order.Status {
		case domain.OrderStatusInProcess:
			dash.InProcess++
		case domain.OrderStatusPendingReview:
			dash.PendingL1Review++
		case domain.OrderStatusCompleted:
			dash.Completed++
		}
		dash.DocumentCount += len(order.Documents)
	}

	s.cacheSet(ctx, cacheKey, dash)
	return dash, nil
}

// ListServices returns all of the customer's service orders.
func (s *CustomerService) ListServices(ctx context.Context, customerID string) ([]domain.ServiceOrder, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return customer.Services, nil
}

// GetService returns one service order by its service id.
func (s *CustomerService) GetService(ctx context.Context, customerID, serviceID string) (*domain.ServiceOrder, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", nil)
		}
		return nil, apperrors.MapError(err)
	}
	for i := range customer.Services {
		if customer.Services[i].ServiceID == serviceID || customer.Services[i].OrderID == serviceID {
			return &customer.Services[i], nil
		}
	}
	return nil, apperrors.NewNotFound("service", map[string]any{"service_id": serviceID})
}

// AttachDocuments appends uploaded document references to an order owned
// by the customer. The whole customer record is saved with a version check.
func (s *CustomerService) AttachDocuments(ctx context.Context, customerID, orderID string, docs []domain.DocumentRef) (*domain.ServiceOrder, error) {
	if len(docs) == 0 {
		return nil, apperrors.NewValidationError("no documents provided", nil)
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", nil)
		}
		return nil, apperrors.MapError(err)
	}
	idx := customer.ServiceByOrderID(orderID)
	if idx < 0 {
		return nil, apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
	}

	order := &customer.Services[idx]
	order.Documents = append(order.Documents, docs...)

	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("order was modified concurrently", map[string]any{"order_id": orderID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventDocumentsUploaded,
		OrderID: orderID,
		Actor:   customerActor(customerID),
		Payload: events.DocumentsUploadedPayload{
			CustomerID: customerID,
			Count:      len(docs),
		},
	})
	return order, nil
}

// RecordPayment marks an order paid and emits a payment event.
func (s *CustomerService) RecordPayment(ctx context.Context, customerID, orderID string, amountPaise int64) (*domain.ServiceOrder, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", nil)
		}
		return nil, apperrors.MapError(err)
	}
	idx := customer.ServiceByOrderID(orderID)
	if idx < 0 {
		return nil, apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
	}

	order := &customer.Services[idx]
	if order.PaidAt != nil {
		return nil, apperrors.NewConflict("order already paid", map[string]any{"order_id": orderID})
	}
	now := time.Now()
	order.PaidAt = &now

	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("order was modified concurrently", map[string]any{"order_id": orderID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventPaymentReceived,
		OrderID: orderID,
		Actor:   customerActor(customerID),
		Payload: events.PaymentReceivedPayload{
			CustomerID:    customerID,
			CustomerEmail: customer.Email,
			CustomerName:  customer.Name,
			ServiceName:   order.ServiceName(),
			AmountPaise:   amountPaise,
		},
	})
	return order, nil
}

// UpdateProfile updates the customer's own contact details.
func (s *CustomerService) UpdateProfile(ctx context.Context, customerID, name, phone string) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if name != "" {
		customer.Name = name
	}
	if phone != "" {
		customer.Phone = phone
	}
	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("profile was modified concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

// SendQuery files a customer question against one of their services.
func (s *CustomerService) SendQuery(ctx context.Context, customerID, serviceID, subject, body string) (*domain.CustomerQuery, error) {
	query := &domain.CustomerQuery{
		CustomerID: customerID,
		ServiceID:  serviceID,
		Subject:    subject,
		Body:       body,
	}
	if err := s.queries.CreateQuery(ctx, query); err != nil {
		return nil, apperrors.MapError(err)
	}
	return query, nil
}

// ListQueries returns the customer's queries with any replies.
func (s *CustomerService) ListQueries(ctx context.Context, customerID string) ([]domain.CustomerQuery, error) {
	result, err := s.queries.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// SubmitFeedback stores a satisfaction record.
func (s *CustomerService) SubmitFeedback(ctx context.Context, customerID string, rating int, comments string) (*domain.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	feedback := &domain.Feedback{
		CustomerID: customerID,
		Rating:     rating,
		Comments:   comments,
	}
	if err := s.queries.CreateFeedback(ctx, feedback); err != nil {
		return nil, apperrors.MapError(err)
	}
	return feedback, nil
}

func (s *CustomerService) cacheGet(ctx context.Context, key string) []byte {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return raw
}

func (s *CustomerService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, dashboardCacheTTL).Err(); err != nil {
		s.logger.Debug("dashboard cache write failed", zap.Error(err))
	}
}

func (s *CustomerService) publishEvent(ctx context.Context, event events.Event) {
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
