package domain

import "time"

// ReviewDecision is the verdict an L1 reviewer issues on a pending order.
type ReviewDecision string

const (
	ReviewDecisionApproved ReviewDecision = "approved"
	ReviewDecisionRejected ReviewDecision = "rejected"
)

// ReviewItem is one pending order surfaced to an L1 reviewer.
type ReviewItem struct {
	OrderID         string        `json:"order_id"`
	ServiceName     string        `json:"service_name"`
	CustomerID      string        `json:"customer_id"`
	ServiceID       string        `json:"service_id"`
	EmployeeID      string        `json:"employee_id"`
	EmployeeName    string        `json:"employee_name"`
	SentForReviewAt time.Time     `json:"sent_for_review_at"`
	Documents       []DocumentRef `json:"documents"`
}
