package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/tax-backoffice/internal/config"
	"github.com/spec-kit/tax-backoffice/internal/observability"
	apperrors "github.com/spec-kit/tax-backoffice/pkg/util"
)

// smtpSendFunc abstracts the SMTP wire so tests can fake delivery.
type smtpSendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// ZeptoGateway sends mail through the ZeptoMail template API and SMTP
// relay. Credentials are re-resolved from config on every call.
type ZeptoGateway struct {
	cfg      config.MailConfig
	logger   *zap.Logger
	metrics  *observability.Metrics
	smtpSend smtpSendFunc
}

// NewZeptoGateway constructs the gateway.
func NewZeptoGateway(cfg config.MailConfig, logger *zap.Logger, metrics *observability.Metrics) *ZeptoGateway {
	return &ZeptoGateway{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		smtpSend: smtp.SendMail,
	}
}

type templatePayload struct {
	TemplateKey string         `json:"template_key"`
	From        emailAddress   `json:"from"`
	To          []emailTarget  `json:"to"`
	MergeInfo   map[string]any `json:"merge_info"`
}

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type emailTarget struct {
	EmailAddress emailAddress `json:"email_address"`
}

type templateAPIResponse struct {
	RequestID string `json:"request_id"`
	Data      []struct {
		MessageID string `json:"message_id"`
	} `json:"data"`
}

// SendTemplate posts one templated send to the provider API. Categories
// without a configured template are rejected before any network call.
func (g *ZeptoGateway) SendTemplate(ctx context.Context, req TemplateRequest) (*Result, error) {
	key := templateKey(g.cfg, req.Category)
	if key == "" {
		return nil, apperrors.NewInvalidTemplateType(string(req.Category))
	}

	cred := g.credentialFor(req.Category)

	payload := templatePayload{
		TemplateKey: key,
		From: emailAddress{
			Address: g.fromAddress(req.From),
			Name:    g.cfg.FromName,
		},
		To: []emailTarget{
			{EmailAddress: emailAddress{Address: req.To, Name: req.Name}},
		},
		MergeInfo: req.TemplateData,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.SendTimeout())
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.TemplateAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", cred.key)

	client := &http.Client{Timeout: g.cfg.SendTimeout()}
	resp, err := client.Do(httpReq)
	if err != nil {
		g.recordSend(req.Category, false)
		return nil, apperrors.NewDeliveryFailed(err, map[string]any{"email_type": string(req.Category)})
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.recordSend(req.Category, false)
		g.logger.Error("template send rejected by provider",
			zap.String("email_type", string(req.Category)),
			zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewDeliveryFailed(
			fmt.Errorf("provider returned status %d", resp.StatusCode),
			map[string]any{
				"email_type": string(req.Category),
				"status":     resp.StatusCode,
				"body":       string(respBody),
			})
	}

	var parsed templateAPIResponse
	_ = json.Unmarshal(respBody, &parsed)
	providerID := parsed.RequestID
	if len(parsed.Data) > 0 && parsed.Data[0].MessageID != "" {
		providerID = parsed.Data[0].MessageID
	}

	g.recordSend(req.Category, true)
	g.logger.Info("template email sent",
		zap.String("email_type", string(req.Category)),
		zap.String("provider_id", providerID))
	return &Result{ProviderID: providerID}, nil
}

// SendRaw delivers raw HTML over an SMTP session opened for this call.
func (g *ZeptoGateway) SendRaw(ctx context.Context, req RawRequest) (*Result, error) {
	category := req.Category
	if category == "" {
		category = CategoryGeneral
	}
	if _, err := ParseCategory(string(category)); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"email_type": string(category)})
	}
	cred := g.credentialFor(category)

	from := g.fromAddress(req.From)
	msg := buildRawMessage(from, g.cfg.FromName, req.To, req.Subject, req.HTML)

	addr := g.cfg.SMTPHost + ":" + g.cfg.SMTPPort
	auth := smtp.PlainAuth("", "emailapikey", cred.key, g.cfg.SMTPHost)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.SendTimeout())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.smtpSend(addr, auth, from, []string{req.To}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			g.recordSend(category, false)
			return nil, apperrors.NewDeliveryFailed(err, map[string]any{"email_type": string(category)})
		}
	case <-ctx.Done():
		g.recordSend(category, false)
		return nil, apperrors.NewDeliveryFailed(ctx.Err(), map[string]any{
			"email_type": string(category),
			"reason":     "timeout",
		})
	}

	g.recordSend(category, true)
	g.logger.Info("raw email sent", zap.String("email_type", string(category)))
	return &Result{}, nil
}

func (g *ZeptoGateway) credentialFor(category Category) credential {
	cred := resolveCredential(g.cfg, category)
	if cred.fellBack {
		g.logger.Warn("no credential configured for email type; using GENERAL",
			zap.String("email_type", string(category)))
	}
	return cred
}

func (g *ZeptoGateway) fromAddress(override string) string {
	if override != "" {
		return override
	}
	return g.cfg.FromAddress
}

func (g *ZeptoGateway) recordSend(category Category, ok bool) {
	g.metrics.RecordMailSend(string(category), ok)
}

func buildRawMessage(from, fromName, to, subject, html string) []byte {
	var b strings.Builder
	if fromName != "" {
		fmt.Fprintf(&b, "From: %q <%s>\r\n", fromName, from)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
