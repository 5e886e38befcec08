package mail

import "fmt"

// Category classifies an outbound email. Each category resolves to its own
// provider credential; PASSWORD_RESET and WELCOME additionally map to a
// provider template.
type Category string

const (
	CategoryPasswordReset Category = "PASSWORD_RESET"
	CategoryWelcome       Category = "WELCOME"
	CategoryPayments      Category = "PAYMENTS"
	CategoryGeneral       Category = "GENERAL"
)

// ParseCategory validates a wire value against the closed enum.
func ParseCategory(value string) (Category, error) {
	switch Category(value) {
	case CategoryPasswordReset, CategoryWelcome, CategoryPayments, CategoryGeneral:
		return Category(value), nil
	}
	return "", fmt.Errorf("unknown email category %q", value)
}
