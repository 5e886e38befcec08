package dto

// CompleteReviewRequest payload deciding a pending L1 review.
type CompleteReviewRequest struct {
	OrderID      string `json:"orderId" validate:"required"`
	Decision     string `json:"decision" validate:"required,oneof=approved rejected"`
	CustomerID   string `json:"customerId" validate:"required"`
	ServiceID    string `json:"serviceId"`
	L1EmployeeID string `json:"l1EmployeeId"`
}

// SendForReviewRequest payload escalating an order to L1 review.
type SendForReviewRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}
