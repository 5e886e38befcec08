package domain

import "time"

// CustomerQuery captures a question a customer raised against a service.
type CustomerQuery struct {
	ID         string
	CustomerID string
	ServiceID  string
	Subject    string
	Body       string
	Reply      *QueryReply
	CreatedAt  time.Time
}

// QueryReply is an employee's answer to a customer query.
type QueryReply struct {
	EmployeeID string    `json:"employee_id"`
	Body       string    `json:"body"`
	RepliedAt  time.Time `json:"replied_at"`
}

// Feedback is a customer satisfaction record.
type Feedback struct {
	ID         string
	CustomerID string
	Rating     int
	Comments   string
	CreatedAt  time.Time
}
