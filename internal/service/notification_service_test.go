package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/tax-backoffice/internal/domain"
	"github.com/spec-kit/tax-backoffice/internal/events"
	"github.com/spec-kit/tax-backoffice/internal/mail"
)

type fakeGateway struct {
	templates []mail.TemplateRequest
	raws      []mail.RawRequest
	err       error
}

func (g *fakeGateway) SendTemplate(ctx context.Context, req mail.TemplateRequest) (*mail.Result, error) {
	g.templates = append(g.templates, req)
	if g.err != nil {
		return nil, g.err
	}
	return &mail.Result{ProviderID: "fake"}, nil
}

func (g *fakeGateway) SendRaw(ctx context.Context, req mail.RawRequest) (*mail.Result, error) {
	g.raws = append(g.raws, req)
	if g.err != nil {
		return nil, g.err
	}
	return &mail.Result{}, nil
}

func newNotificationFixture() (*fakeGateway, events.Dispatcher) {
	gateway := &fakeGateway{}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, gateway, zap.NewNop()).RegisterHandlers()
	return gateway, dispatcher
}

func TestCustomerRegisteredSendsWelcomeTemplate(t *testing.T) {
	gateway, dispatcher := newNotificationFixture()

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type: events.EventCustomerRegistered,
		Payload: events.CustomerRegisteredPayload{
			CustomerID: "cust-1",
			Name:       "Asha Rao",
			Email:      "asha@example.in",
		},
	})

	if len(gateway.templates) != 1 {
		t.Fatalf("templates = %d, want 1", len(gateway.templates))
	}
	sent := gateway.templates[0]
	if sent.Category != mail.CategoryWelcome {
		t.Errorf("category = %q, want WELCOME", sent.Category)
	}
	if sent.To != "asha@example.in" {
		t.Errorf("to = %q", sent.To)
	}
}

func TestReviewCompletedSendsDecisionMail(t *testing.T) {
	cases := []struct {
		decision domain.ReviewDecision
		wantText string
	}{
		{domain.ReviewDecisionApproved, "has been completed"},
		{domain.ReviewDecisionRejected, "returned to our team"},
	}

	for _, tc := range cases {
		t.Run(string(tc.decision), func(t *testing.T) {
			gateway, dispatcher := newNotificationFixture()

			_ = dispatcher.Publish(context.Background(), events.Event{
				Type:    events.EventReviewCompleted,
				OrderID: "order-1",
				Payload: events.ReviewCompletedPayload{
					CustomerEmail: "asha@example.in",
					CustomerName:  "Asha Rao",
					ServiceName:   "ITR Filing",
					Decision:      tc.decision,
				},
			})

			if len(gateway.raws) != 1 {
				t.Fatalf("raws = %d, want 1", len(gateway.raws))
			}
			sent := gateway.raws[0]
			if sent.Category != mail.CategoryGeneral {
				t.Errorf("category = %q, want GENERAL", sent.Category)
			}
			if !strings.Contains(sent.HTML, tc.wantText) {
				t.Errorf("html %q missing %q", sent.HTML, tc.wantText)
			}
		})
	}
}

func TestPaymentReceivedSendsReceipt(t *testing.T) {
	gateway, dispatcher := newNotificationFixture()

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventPaymentReceived,
		OrderID: "order-1",
		Payload: events.PaymentReceivedPayload{
			CustomerEmail: "asha@example.in",
			CustomerName:  "Asha Rao",
			ServiceName:   "ITR Filing",
			AmountPaise:   149900,
		},
	})

	if len(gateway.raws) != 1 {
		t.Fatalf("raws = %d, want 1", len(gateway.raws))
	}
	sent := gateway.raws[0]
	if sent.Category != mail.CategoryPayments {
		t.Errorf("category = %q, want PAYMENTS", sent.Category)
	}
	if !strings.Contains(sent.HTML, "1499.00") {
		t.Errorf("html %q missing formatted amount", sent.HTML)
	}
}

func TestNotificationSkipsPayloadWithoutEmail(t *testing.T) {
	gateway, dispatcher := newNotificationFixture()

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventReviewCompleted,
		Payload: events.ReviewCompletedPayload{},
	})

	if len(gateway.raws) != 0 {
		t.Fatalf("raws = %d, want 0", len(gateway.raws))
	}
}
