package dto

import "time"

// CustomerRegisterRequest payload for new customers.
type CustomerRegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"`
}

// CustomerLoginRequest payload for login.
type CustomerLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateCustomerProfileRequest payload for profile updates.
type UpdateCustomerProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// SendQueryRequest payload for a customer question.
type SendQueryRequest struct {
	ServiceID string `json:"service_id"`
	Subject   string `json:"subject" validate:"required"`
	Body      string `json:"body" validate:"required"`
}

// FeedbackRequest payload for satisfaction feedback.
type FeedbackRequest struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comments string `json:"comments"`
}

// PaymentSuccessRequest payload confirming a provider payment.
type PaymentSuccessRequest struct {
	OrderID     string `json:"order_id" validate:"required"`
	AmountPaise int64  `json:"amount_paise" validate:"required,gt=0"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
