package domain

import "time"

// Customer is the domain model for clients who purchase tax services.
// Service orders are embedded in the customer record and mutated only as
// part of a load-modify-save cycle on the whole record; Version is the
// optimistic concurrency counter checked on every save.
type Customer struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Services     []ServiceOrder
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ServiceByOrderID returns the index of the order within Services, or -1.
func (c *Customer) ServiceByOrderID(orderID string) int {
	for i := range c.Services {
		if c.Services[i].OrderID == orderID {
			return i
		}
	}
	return -1
}
