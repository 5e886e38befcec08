package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		current OrderStatus
		next    OrderStatus
		want    bool
	}{
		{OrderStatusInProcess, OrderStatusPendingReview, true},
		{OrderStatusPendingReview, OrderStatusCompleted, true},
		{OrderStatusPendingReview, OrderStatusInProcess, true},
		{OrderStatusInProcess, OrderStatusCompleted, false},
		{OrderStatusCompleted, OrderStatusInProcess, false},
		{OrderStatus("document-verification"), OrderStatusCompleted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.current, tc.next); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.current, tc.next, got, tc.want)
		}
	}
}

func TestReviewControlled(t *testing.T) {
	cases := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusPendingReview, true},
		{OrderStatusCompleted, true},
		{OrderStatusInProcess, false},
		{OrderStatus("document-verification"), false},
	}
	for _, tc := range cases {
		if got := tc.status.ReviewControlled(); got != tc.want {
			t.Errorf("ReviewControlled(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestServiceName(t *testing.T) {
	order := ServiceOrder{ServiceID: "itr-filing"}
	if got := order.ServiceName(); got != "itr-filing" {
		t.Errorf("ServiceName = %q, want service id fallback", got)
	}
	order.PackageName = "ITR Filing"
	if got := order.ServiceName(); got != "ITR Filing" {
		t.Errorf("ServiceName = %q, want package name", got)
	}
}

func TestServiceByOrderID(t *testing.T) {
	customer := Customer{Services: []ServiceOrder{
		{OrderID: "order-1"},
		{OrderID: "order-2"},
	}}
	if idx := customer.ServiceByOrderID("order-2"); idx != 1 {
		t.Errorf("idx = %d, want 1", idx)
	}
	if idx := customer.ServiceByOrderID("order-9"); idx != -1 {
		t.Errorf("idx = %d, want -1", idx)
	}
}
