package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/tax-backoffice/internal/config"
	apperrors "github.com/spec-kit/tax-backoffice/pkg/util"
)

func testMailConfig(apiURL string) config.MailConfig {
	return config.MailConfig{
		TemplateAPIURL:        apiURL,
		SMTPHost:              "smtp.zeptomail.in",
		SMTPPort:              "587",
		FromAddress:           "noreply@example.in",
		FromName:              "Tax Desk",
		KeyPasswordReset:      "key-reset",
		KeyWelcome:            "key-welcome",
		KeyPayments:           "key-payments",
		KeyGeneral:            "key-general",
		TemplatePasswordReset: "tpl-reset",
		TemplateWelcome:       "tpl-welcome",
	}
}

func newTestGateway(cfg config.MailConfig) *ZeptoGateway {
	return NewZeptoGateway(cfg, zap.NewNop(), nil)
}

func TestSendTemplateSelectsCredentialPerCategory(t *testing.T) {
	cases := []struct {
		category     Category
		wantAuth     string
		wantTemplate string
	}{
		{CategoryPasswordReset, "key-reset", "tpl-reset"},
		{CategoryWelcome, "key-welcome", "tpl-welcome"},
	}

	for _, tc := range cases {
		t.Run(string(tc.category), func(t *testing.T) {
			var gotAuth, gotTemplate string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				var payload struct {
					TemplateKey string `json:"template_key"`
				}
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Errorf("decode payload: %v", err)
					return
				}
				gotTemplate = payload.TemplateKey
				w.Write([]byte(`{"request_id":"req-1"}`))
			}))
			defer server.Close()

			gw := newTestGateway(testMailConfig(server.URL))
			result, err := gw.SendTemplate(context.Background(), TemplateRequest{
				To:       "user@example.in",
				Category: tc.category,
			})
			if err != nil {
				t.Fatalf("SendTemplate: %v", err)
			}
			if gotAuth != tc.wantAuth {
				t.Errorf("authorization = %q, want %q", gotAuth, tc.wantAuth)
			}
			if gotTemplate != tc.wantTemplate {
				t.Errorf("template_key = %q, want %q", gotTemplate, tc.wantTemplate)
			}
			if result.ProviderID != "req-1" {
				t.Errorf("provider id = %q, want req-1", result.ProviderID)
			}
		})
	}
}

func TestSendTemplateRejectsCategoriesWithoutTemplate(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	gw := newTestGateway(testMailConfig(server.URL))
	for _, category := range []Category{CategoryPayments, CategoryGeneral} {
		_, err := gw.SendTemplate(context.Background(), TemplateRequest{
			To:       "user@example.in",
			Category: category,
		})
		if !apperrors.IsCode(err, "INVALID_TEMPLATE_TYPE") {
			t.Errorf("%s: err = %v, want INVALID_TEMPLATE_TYPE", category, err)
		}
	}
	if called {
		t.Error("provider was called for a template-less category")
	}
}

func TestSendTemplateFallsBackToGeneralKey(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"request_id":"req-2"}`))
	}))
	defer server.Close()

	cfg := testMailConfig(server.URL)
	cfg.KeyWelcome = ""
	gw := newTestGateway(cfg)

	if _, err := gw.SendTemplate(context.Background(), TemplateRequest{
		To:       "user@example.in",
		Category: CategoryWelcome,
	}); err != nil {
		t.Fatalf("SendTemplate: %v", err)
	}
	if gotAuth != "key-general" {
		t.Errorf("authorization = %q, want key-general", gotAuth)
	}
}

func TestSendTemplateProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	gw := newTestGateway(testMailConfig(server.URL))
	_, err := gw.SendTemplate(context.Background(), TemplateRequest{
		To:       "user@example.in",
		Category: CategoryPasswordReset,
	})
	if !apperrors.IsCode(err, "DELIVERY_FAILED") {
		t.Fatalf("err = %v, want DELIVERY_FAILED", err)
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Details["status"] != http.StatusInternalServerError {
		t.Errorf("details status = %v, want 500", domainErr.Details["status"])
	}
}

func TestSendRawDeliversOverSMTP(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	gw := newTestGateway(testMailConfig("http://unused"))
	gw.smtpSend = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	_, err := gw.SendRaw(context.Background(), RawRequest{
		To:       "user@example.in",
		Subject:  "Service update",
		HTML:     "<p>done</p>",
		Category: CategoryGeneral,
	})
	if err != nil {
		t.Fatalf("SendRaw: %v", err)
	}
	if gotAddr != "smtp.zeptomail.in:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "noreply@example.in" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "user@example.in" {
		t.Errorf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{
		"Subject: Service update\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n",
		"<p>done</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendRawRejectsUnknownCategory(t *testing.T) {
	gw := newTestGateway(testMailConfig("http://unused"))
	called := false
	gw.smtpSend = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		called = true
		return nil
	}

	_, err := gw.SendRaw(context.Background(), RawRequest{
		To:       "user@example.in",
		Subject:  "Service update",
		HTML:     "<p>x</p>",
		Category: Category("MARKETING"),
	})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
	if called {
		t.Error("SMTP session opened for unknown category")
	}
}

func TestSendRawWrapsTransportError(t *testing.T) {
	gw := newTestGateway(testMailConfig("http://unused"))
	gw.smtpSend = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	_, err := gw.SendRaw(context.Background(), RawRequest{
		To:       "user@example.in",
		Subject:  "Service update",
		HTML:     "<p>x</p>",
		Category: CategoryPayments,
	})
	if !apperrors.IsCode(err, "DELIVERY_FAILED") {
		t.Fatalf("err = %v, want DELIVERY_FAILED", err)
	}
}

func TestSendRawTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	gw := newTestGateway(testMailConfig("http://unused"))
	gw.smtpSend = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.SendRaw(ctx, RawRequest{
		To:       "user@example.in",
		Subject:  "stuck",
		HTML:     "<p>x</p>",
		Category: CategoryGeneral,
	})
	if !apperrors.IsCode(err, "DELIVERY_FAILED") {
		t.Fatalf("err = %v, want DELIVERY_FAILED", err)
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Details["reason"] != "timeout" {
		t.Errorf("details reason = %v, want timeout", domainErr.Details["reason"])
	}
}

func TestResolveCredentialFallback(t *testing.T) {
	cfg := testMailConfig("http://unused")
	cfg.KeyPayments = ""

	cred := resolveCredential(cfg, CategoryPayments)
	if cred.key != "key-general" || !cred.fellBack {
		t.Errorf("cred = %+v, want general fallback", cred)
	}

	cred = resolveCredential(cfg, CategoryGeneral)
	if cred.key != "key-general" || cred.fellBack {
		t.Errorf("cred = %+v, want direct general", cred)
	}
}

func TestParseCategory(t *testing.T) {
	if _, err := ParseCategory("PAYMENTS"); err != nil {
		t.Fatalf("ParseCategory(PAYMENTS): %v", err)
	}
	if _, err := ParseCategory("MARKETING"); err == nil {
		t.Fatal("ParseCategory(MARKETING) should fail")
	}
}
