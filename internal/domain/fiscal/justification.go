package fiscal

import (
	"strings"
	"unicode/utf8"

	"github.com/erp/backoffice/internal/domain/shared"
)

const (
	MinJustificationLength = 15
	MaxJustificationLength = 255
)

// ErrInvalidJustification is returned for cancellation reasons outside 15..255 characters
var ErrInvalidJustification = shared.NewDomainError("INVALID_JUSTIFICATION",
	"A justificativa do cancelamento deve ter entre 15 e 255 caracteres")

// ValidateJustification trims the reason and checks its length in characters
func ValidateJustification(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	n := utf8.RuneCountInString(reason)
	if n < MinJustificationLength || n > MaxJustificationLength {
		return "", ErrInvalidJustification
	}
	return reason, nil
}
