package reminder

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MinTextLength = 3
	MaxTextLength = 200
)

type Reason string

const (
	ReasonEmpty     Reason = "empty"
	ReasonTooShort  Reason = "too_short"
	ReasonTooLong   Reason = "too_long"
	ReasonDuplicate Reason = "duplicate"
)

var ErrValidation = errors.New("validation failed")

// ValidationError describes rejected user input. It is shown to the user and
// never reaches a backend.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

var messages = map[Reason]string{
	ReasonEmpty:     "O lembrete não pode estar vazio",
	ReasonTooShort:  "O lembrete deve ter pelo menos 3 caracteres",
	ReasonTooLong:   "O lembrete deve ter no máximo 200 caracteres",
	ReasonDuplicate: "Já existe um lembrete com este texto",
}

func NewValidationError(reason Reason) *ValidationError {
	return &ValidationError{Reason: reason, Message: messages[reason]}
}

// ValidateText checks the trimmed length of a reminder text and returns the
// trimmed value on success. Length is counted in runes.
func ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return "", NewValidationError(ReasonEmpty)
	case n < MinTextLength:
		return "", NewValidationError(ReasonTooShort)
	case n > MaxTextLength:
		return "", NewValidationError(ReasonTooLong)
	}
	return trimmed, nil
}

// SameText reports whether two texts collide under the duplicate rule:
// surrounding whitespace is ignored and the comparison is case-insensitive.
func SameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// HasDuplicate reports whether any item other than exceptID carries the
// same text.
func HasDuplicate(items []*Reminder, text, exceptID string) bool {
	for _, r := range items {
		if r.ID != exceptID && SameText(r.Text, text) {
			return true
		}
	}
	return false
}
