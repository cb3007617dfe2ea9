package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("lembrete not found")
	ErrPersistence   = errors.New("failed to persist lembretes")
	ErrInvalidImport = errors.New("invalid import data")
	ErrCorruptData   = errors.New("stored lembretes are corrupt")
)

// ImportError rejects a whole import. Invalid counts the items that failed
// validation; it is zero when the document itself is malformed.
type ImportError struct {
	Invalid int
	Reason  string
}

func (e *ImportError) Error() string {
	if e.Invalid > 0 {
		return fmt.Sprintf("%d lembretes inválidos encontrados", e.Invalid)
	}
	return e.Reason
}

func (e *ImportError) Unwrap() error {
	return ErrInvalidImport
}
