package domain

import "time"

// Employee models a back-office operator handling customer services.
// L1EmpCode is a back-reference to the identifier of the employee's own
// supervising L1 reviewer; it is empty for employees without a supervisor.
type Employee struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsL1Employee bool
	L1EmpCode    string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
