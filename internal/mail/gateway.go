package mail

import (
	"context"

	"github.com/spec-kit/tax-backoffice/internal/config"
)

// TemplateRequest describes a templated send.
type TemplateRequest struct {
	To           string
	Name         string
	TemplateData map[string]any
	From         string
	Category     Category
}

// RawRequest describes a raw HTML send.
type RawRequest struct {
	To       string
	Subject  string
	HTML     string
	From     string
	Category Category
}

// Result carries the provider acknowledgement.
type Result struct {
	ProviderID string
}

// Gateway sends transactional email. Each send is a single stateless
// request/response against the provider; there is no queue and no retry.
type Gateway interface {
	SendTemplate(ctx context.Context, req TemplateRequest) (*Result, error)
	SendRaw(ctx context.Context, req RawRequest) (*Result, error)
}

// credential pairs the resolved API key with whether the category fell
// back to the general key.
type credential struct {
	key      string
	fellBack bool
}

// resolveCredential looks up the API key for a category against the live
// config on every call. Unconfigured categories use the general key; the
// caller logs that fallback.
func resolveCredential(cfg config.MailConfig, category Category) credential {
	var key string
	switch category {
	case CategoryPasswordReset:
		key = cfg.KeyPasswordReset
	case CategoryWelcome:
		key = cfg.KeyWelcome
	case CategoryPayments:
		key = cfg.KeyPayments
	case CategoryGeneral:
		key = cfg.KeyGeneral
	}
	if key == "" {
		return credential{key: cfg.KeyGeneral, fellBack: category != CategoryGeneral}
	}
	return credential{key: key}
}

// templateKey returns the provider template for a category, empty when the
// category has no template configured.
func templateKey(cfg config.MailConfig, category Category) string {
	switch category {
	case CategoryPasswordReset:
		return cfg.TemplatePasswordReset
	case CategoryWelcome:
		return cfg.TemplateWelcome
	}
	return ""
}
