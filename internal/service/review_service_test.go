package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tax-backoffice/internal/domain"
	"github.com/spec-kit/tax-backoffice/internal/events"
	"github.com/spec-kit/tax-backoffice/internal/repository"
	apperrors "github.com/spec-kit/tax-backoffice/pkg/util"
)

type fakeCustomerRepo struct {
	customers map[string]*domain.Customer
	saveErr   error
	saves     int
}

func newFakeCustomerRepo(customers ...*domain.Customer) *fakeCustomerRepo {
	repo := &fakeCustomerRepo{customers: map[string]*domain.Customer{}}
	for _, c := range customers {
		repo.customers[c.ID] = c
	}
	return repo
}

func (r *fakeCustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	if customer.ID == "" {
		customer.ID = fmt.Sprintf("cust-%d", len(r.customers)+1)
	}
	customer.Version = 1
	r.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) Save(ctx context.Context, customer *domain.Customer) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *customer
	copied.Services = append([]domain.ServiceOrder{}, customer.Services...)
	return &copied, nil
}

func (r *fakeCustomerRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	for _, customer := range r.customers {
		if customer.Email == email {
			return customer, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCustomerRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.Customer, error) {
	for _, customer := range r.customers {
		if customer.ServiceByOrderID(orderID) >= 0 {
			return r.GetByID(ctx, customer.ID)
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCustomerRepo) ListWithPendingReviews(ctx context.Context) ([]domain.Customer, error) {
	var result []domain.Customer
	for _, customer := range r.customers {
		for _, order := range customer.Services {
			if order.Status == domain.OrderStatusPendingReview {
				result = append(result, *customer)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeCustomerRepo) ListByAssignedEmployee(ctx context.Context, employeeID string) ([]domain.Customer, error) {
	var result []domain.Customer
	for _, customer := range r.customers {
		for _, order := range customer.Services {
			if order.EmployeeID == employeeID {
				result = append(result, *customer)
				break
			}
		}
	}
	return result, nil
}

type fakeEmployeeRepo struct {
	employees map[string]*domain.Employee
}

func newFakeEmployeeRepo(employees ...*domain.Employee) *fakeEmployeeRepo {
	repo := &fakeEmployeeRepo{employees: map[string]*domain.Employee{}}
	for _, e := range employees {
		repo.employees[e.ID] = e
	}
	return repo
}

func (r *fakeEmployeeRepo) Create(ctx context.Context, employee *domain.Employee) error {
	r.employees[employee.ID] = employee
	return nil
}

func (r *fakeEmployeeRepo) Update(ctx context.Context, employee *domain.Employee) error {
	r.employees[employee.ID] = employee
	return nil
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	employee, ok := r.employees[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return employee, nil
}

func (r *fakeEmployeeRepo) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	for _, employee := range r.employees {
		if employee.Email == email {
			return employee, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func pendingReviewFixture() (*fakeCustomerRepo, *fakeEmployeeRepo, *recordingDispatcher, *ReviewService) {
	sentAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	customer := &domain.Customer{
		ID:    "cust-1",
		Name:  "Asha Rao",
		Email: "asha@example.in",
		Services: []domain.ServiceOrder{{
			OrderID:         "order-1",
			ServiceID:       "itr-filing",
			PackageName:     "ITR Filing",
			EmployeeID:      "emp-1",
			Status:          domain.OrderStatusPendingReview,
			SentForReviewAt: &sentAt,
		}},
		Version: 3,
	}
	handler := &domain.Employee{
		ID:        "emp-1",
		Name:      "Ravi Kumar",
		Email:     "ravi@example.in",
		L1EmpCode: "emp-2",
		Active:    true,
	}
	reviewer := &domain.Employee{
		ID:           "emp-2",
		Name:         "Lena Thomas",
		Email:        "lena@example.in",
		IsL1Employee: true,
		Active:       true,
	}

	customers := newFakeCustomerRepo(customer)
	employees := newFakeEmployeeRepo(handler, reviewer)
	dispatcher := &recordingDispatcher{}
	svc := NewReviewService(ReviewDependencies{
		CustomerRepo: customers,
		EmployeeRepo: employees,
		Dispatcher:   dispatcher,
	})
	return customers, employees, dispatcher, svc
}

func TestListPendingReviews(t *testing.T) {
	_, _, _, svc := pendingReviewFixture()

	items, err := svc.ListPendingReviews(context.Background(), "emp-2")
	if err != nil {
		t.Fatalf("ListPendingReviews: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	item := items[0]
	if item.OrderID != "order-1" || item.CustomerID != "cust-1" {
		t.Errorf("item = %+v", item)
	}
	if item.EmployeeName != "Ravi Kumar" {
		t.Errorf("employee name = %q", item.EmployeeName)
	}
	if item.ServiceName != "ITR Filing" {
		t.Errorf("service name = %q", item.ServiceName)
	}
}

func TestListPendingReviewsFiltersByReviewer(t *testing.T) {
	_, _, _, svc := pendingReviewFixture()

	items, err := svc.ListPendingReviews(context.Background(), "emp-9")
	if err != nil {
		t.Fatalf("ListPendingReviews: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items = %d, want 0", len(items))
	}
}

func TestListPendingReviewsSkipsUnresolvableEmployee(t *testing.T) {
	_, employees, _, svc := pendingReviewFixture()
	delete(employees.employees, "emp-1")

	items, err := svc.ListPendingReviews(context.Background(), "emp-2")
	if err != nil {
		t.Fatalf("ListPendingReviews: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items = %d, want 0", len(items))
	}
}

func TestCompleteReviewApproves(t *testing.T) {
	customers, _, dispatcher, svc := pendingReviewFixture()

	order, err := svc.CompleteReview(context.Background(), CompleteReviewInput{
		OrderID:      "order-1",
		Decision:     domain.ReviewDecisionApproved,
		CustomerID:   "cust-1",
		ServiceID:    "itr-filing",
		L1EmployeeID: "emp-2",
	})
	if err != nil {
		t.Fatalf("CompleteReview: %v", err)
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Errorf("status = %q, want completed", order.Status)
	}
	if order.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}

	stored := customers.customers["cust-1"].Services[0]
	if stored.Status != domain.OrderStatusCompleted {
		t.Errorf("stored status = %q", stored.Status)
	}

	if len(dispatcher.published) != 1 || dispatcher.published[0].Type != events.EventReviewCompleted {
		t.Errorf("published = %+v", dispatcher.published)
	}
}

func TestCompleteReviewRejectReturnsOrderToHandler(t *testing.T) {
	customers, _, _, svc := pendingReviewFixture()

	order, err := svc.CompleteReview(context.Background(), CompleteReviewInput{
		OrderID:      "order-1",
		Decision:     domain.ReviewDecisionRejected,
		CustomerID:   "cust-1",
		ServiceID:    "itr-filing",
		L1EmployeeID: "emp-2",
	})
	if err != nil {
		t.Fatalf("CompleteReview: %v", err)
	}
	if order.Status != domain.OrderStatusInProcess {
		t.Errorf("status = %q, want in-process", order.Status)
	}
	if order.L1ReviewNotes != "Sent back for revision" {
		t.Errorf("notes = %q", order.L1ReviewNotes)
	}
	if order.CompletedAt != nil {
		t.Error("CompletedAt must stay empty on rejection")
	}
	if customers.saves != 1 {
		t.Errorf("saves = %d, want 1", customers.saves)
	}
}

func TestCompleteReviewAlreadyDecided(t *testing.T) {
	customers, _, _, svc := pendingReviewFixture()
	customers.customers["cust-1"].Services[0].Status = domain.OrderStatusCompleted

	_, err := svc.CompleteReview(context.Background(), CompleteReviewInput{
		OrderID:      "order-1",
		Decision:     domain.ReviewDecisionApproved,
		CustomerID:   "cust-1",
		ServiceID:    "itr-filing",
		L1EmployeeID: "emp-2",
	})
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
	if customers.saves != 0 {
		t.Errorf("saves = %d, want 0", customers.saves)
	}
}

func TestCompleteReviewWrongReviewer(t *testing.T) {
	customers, _, _, svc := pendingReviewFixture()

	_, err := svc.CompleteReview(context.Background(), CompleteReviewInput{
		OrderID:      "order-1",
		Decision:     domain.ReviewDecisionApproved,
		CustomerID:   "cust-1",
		ServiceID:    "itr-filing",
		L1EmployeeID: "emp-9",
	})
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
	stored := customers.customers["cust-1"].Services[0]
	if stored.Status != domain.OrderStatusPendingReview {
		t.Errorf("stored status = %q, order must stay pending", stored.Status)
	}
}

func TestCompleteReviewUnknownOrder(t *testing.T) {
	_, _, _, svc := pendingReviewFixture()

	_, err := svc.CompleteReview(context.Background(), CompleteReviewInput{
		OrderID:      "order-9",
		Decision:     domain.ReviewDecisionApproved,
		CustomerID:   "cust-1",
		ServiceID:    "itr-filing",
		L1EmployeeID: "emp-2",
	})
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestCompleteReviewConcurrentWrite(t *testing.T) {
	customers, _, _, svc := pendingReviewFixture()
	customers.saveErr = repository.ErrVersionConflict

	_, err := svc.CompleteReview(context.Background(), CompleteReviewInput{
		OrderID:      "order-1",
		Decision:     domain.ReviewDecisionApproved,
		CustomerID:   "cust-1",
		ServiceID:    "itr-filing",
		L1EmployeeID: "emp-2",
	})
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestSendForReview(t *testing.T) {
	customers, _, dispatcher, svc := pendingReviewFixture()
	customers.customers["cust-1"].Services[0].Status = domain.OrderStatusInProcess
	customers.customers["cust-1"].Services[0].SentForReviewAt = nil

	order, err := svc.SendForReview(context.Background(), "order-1", "emp-1")
	if err != nil {
		t.Fatalf("SendForReview: %v", err)
	}
	if order.Status != domain.OrderStatusPendingReview {
		t.Errorf("status = %q, want pending", order.Status)
	}
	if order.SentForReviewAt == nil {
		t.Error("SentForReviewAt not stamped")
	}
	if len(dispatcher.published) != 1 || dispatcher.published[0].Type != events.EventOrderSentForReview {
		t.Errorf("published = %+v", dispatcher.published)
	}
}

func TestSendForReviewRequiresSupervisor(t *testing.T) {
	customers, employees, _, svc := pendingReviewFixture()
	customers.customers["cust-1"].Services[0].Status = domain.OrderStatusInProcess
	employees.employees["emp-1"].L1EmpCode = ""

	_, err := svc.SendForReview(context.Background(), "order-1", "emp-1")
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestSendForReviewRejectsNonInProcessOrder(t *testing.T) {
	_, _, _, svc := pendingReviewFixture()

	_, err := svc.SendForReview(context.Background(), "order-1", "emp-1")
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}
