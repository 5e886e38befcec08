package dto

// EmployeeLoginRequest payload for employee login.
type EmployeeLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateEmployeeProfileRequest payload for employee profile updates.
type UpdateEmployeeProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdateServiceStatusRequest payload for status upkeep outside review.
type UpdateServiceStatusRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

// UpdateDelayReasonRequest payload recording an order delay.
type UpdateDelayReasonRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Reason  string `json:"reason" validate:"required"`
}

// ReplyQueryRequest payload for answering a customer query.
type ReplyQueryRequest struct {
	QueryID string `json:"query_id" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// ForgotPasswordRequest payload starting credential recovery.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest payload completing credential recovery.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ChangePasswordRequest payload for an authenticated password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}
