package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/tax-backoffice/internal/domain"
	"github.com/spec-kit/tax-backoffice/internal/events"
	"github.com/spec-kit/tax-backoffice/internal/mail"
)

// NotificationService turns domain events into outbound email. Delivery
// failures are logged, never propagated back into the originating flow.
type NotificationService struct {
	dispatcher events.Dispatcher
	gateway    mail.Gateway
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, gateway mail.Gateway, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		gateway:    gateway,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCustomerRegistered, n.handleCustomerRegistered)
	n.dispatcher.Subscribe(events.EventReviewCompleted, n.handleReviewCompleted)
	n.dispatcher.Subscribe(events.EventPaymentReceived, n.handlePaymentReceived)
	n.dispatcher.Subscribe(events.EventQueryReplied, n.handleQueryReplied)
}

func (n *NotificationService) handleCustomerRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CustomerRegisteredPayload)
	if !ok {
		return nil
	}
	_, err := n.gateway.SendTemplate(ctx, mail.TemplateRequest{
		To:       payload.Email,
		Name:     payload.Name,
		Category: mail.CategoryWelcome,
		TemplateData: map[string]any{
			"name": payload.Name,
		},
	})
	if err != nil {
		n.logger.Error("welcome email failed", zap.String("customer_id", payload.CustomerID), zap.Error(err))
	}
	return err
}

func (n *NotificationService) handleReviewCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReviewCompletedPayload)
	if !ok || payload.CustomerEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Update on your %s service", payload.ServiceName)
	var html string
	if payload.Decision == domain.ReviewDecisionApproved {
		html = fmt.Sprintf("<p>Hi %s,</p><p>Your %s service has been completed.</p>",
			payload.CustomerName, payload.ServiceName)
	} else {
		html = fmt.Sprintf("<p>Hi %s,</p><p>Your %s service needs further work and has been returned to our team.</p>",
			payload.CustomerName, payload.ServiceName)
	}

	_, err := n.gateway.SendRaw(ctx, mail.RawRequest{
		To:       payload.CustomerEmail,
		Subject:  subject,
		HTML:     html,
		Category: mail.CategoryGeneral,
	})
	if err != nil {
		n.logger.Error("review completion email failed", zap.String("order_id", event.OrderID), zap.Error(err))
	}
	return err
}

func (n *NotificationService) handlePaymentReceived(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PaymentReceivedPayload)
	if !ok || payload.CustomerEmail == "" {
		return nil
	}

	_, err := n.gateway.SendRaw(ctx, mail.RawRequest{
		To:      payload.CustomerEmail,
		Subject: fmt.Sprintf("Payment received for %s", payload.ServiceName),
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>We received your payment of ₹%.2f for %s.</p>",
			payload.CustomerName, float64(payload.AmountPaise)/100, payload.ServiceName),
		Category: mail.CategoryPayments,
	})
	if err != nil {
		n.logger.Error("payment email failed", zap.String("order_id", event.OrderID), zap.Error(err))
	}
	return err
}

func (n *NotificationService) handleQueryReplied(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.QueryRepliedPayload)
	if !ok || payload.CustomerEmail == "" {
		return nil
	}

	_, err := n.gateway.SendRaw(ctx, mail.RawRequest{
		To:       payload.CustomerEmail,
		Subject:  fmt.Sprintf("Reply to your query: %s", payload.Subject),
		HTML:     fmt.Sprintf("<p>%s</p>", payload.ReplyPreview),
		Category: mail.CategoryGeneral,
	})
	if err != nil {
		n.logger.Error("query reply email failed", zap.String("query_id", payload.QueryID), zap.Error(err))
	}
	return err
}
