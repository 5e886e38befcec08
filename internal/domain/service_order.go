package domain

import "time"

// OrderStatus enumerates lifecycle states for a service order.
type OrderStatus string

const (
	OrderStatusInProcess     OrderStatus = "in-process"
	OrderStatusPendingReview OrderStatus = "pending-l1-review"
	OrderStatusCompleted     OrderStatus = "completed"
)

// ServiceOrder is one purchased tax service tracked through statuses to
// completion. EmployeeID references the assigned handling employee.
type ServiceOrder struct {
	OrderID         string        `json:"order_id"`
	ServiceID       string        `json:"service_id"`
	PackageName     string        `json:"package_name"`
	EmployeeID      string        `json:"employee_id"`
	Status          OrderStatus   `json:"status"`
	Documents       []DocumentRef `json:"documents"`
	DelayReason     string        `json:"delay_reason,omitempty"`
	L1ReviewNotes   string        `json:"l1_review_notes,omitempty"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
	SentForReviewAt *time.Time    `json:"sent_for_review_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ServiceName returns the display name, falling back to the service id.
func (o ServiceOrder) ServiceName() string {
	if o.PackageName != "" {
		return o.PackageName
	}
	return o.ServiceID
}

// DocumentRef stores metadata for a file attached to a service order.
type DocumentRef struct {
	StorageKey string    `json:"storage_key"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusInProcess:     {OrderStatusPendingReview},
	OrderStatusPendingReview: {OrderStatusCompleted, OrderStatusInProcess},
	OrderStatusCompleted:     {},
}

// CanTransition reports whether an order may move from current to next.
// Unknown statuses have no outgoing transitions.
func CanTransition(current, next OrderStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ReviewControlled reports whether a status is owned by the review
// workflow and may not be set through general status updates.
func (s OrderStatus) ReviewControlled() bool {
	return s == OrderStatusPendingReview || s == OrderStatusCompleted
}
