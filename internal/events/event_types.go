package events

import (
	"time"

	"github.com/spec-kit/tax-backoffice/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCustomerRegistered EventType = "customer_registered"
	EventOrderSentForReview EventType = "order_sent_for_review"
	EventReviewCompleted    EventType = "review_completed"
	EventPaymentReceived    EventType = "payment_received"
	EventQueryReplied       EventType = "query_replied"
	EventDocumentsUploaded  EventType = "documents_uploaded"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.SubjectType `json:"type"`
	CustomerID *string            `json:"customer_id,omitempty"`
	EmployeeID *string            `json:"employee_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	OrderID   string      `json:"order_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CustomerRegisteredPayload payload.
type CustomerRegisteredPayload struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// OrderSentForReviewPayload payload.
type OrderSentForReviewPayload struct {
	CustomerID  string `json:"customer_id"`
	EmployeeID  string `json:"employee_id"`
	L1EmpCode   string `json:"l1_emp_code"`
	ServiceName string `json:"service_name"`
}

// ReviewCompletedPayload payload.
type ReviewCompletedPayload struct {
	CustomerID    string                `json:"customer_id"`
	CustomerEmail string                `json:"customer_email"`
	CustomerName  string                `json:"customer_name"`
	ServiceName   string                `json:"service_name"`
	Decision      domain.ReviewDecision `json:"decision"`
}

// PaymentReceivedPayload payload.
type PaymentReceivedPayload struct {
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	ServiceName   string `json:"service_name"`
	AmountPaise   int64  `json:"amount_paise"`
}

// QueryRepliedPayload payload.
type QueryRepliedPayload struct {
	QueryID       string `json:"query_id"`
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	Subject       string `json:"subject"`
	ReplyPreview  string `json:"reply_preview"`
}

// DocumentsUploadedPayload payload.
type DocumentsUploadedPayload struct {
	CustomerID string `json:"customer_id"`
	Count      int    `json:"count"`
}
