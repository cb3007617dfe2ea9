package session

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"lembretes/internal/service"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message about the outcome of the last action.
type Notice struct {
	Kind    NoticeKind `json:"type"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

// Notice returns the latest notice while it is still fresh.
func (s *Session) Notice() (Notice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.notice == nil || s.now().Sub(s.notice.At) >= s.noticeTTL {
		return Notice{}, false
	}
	return *s.notice, true
}

func (s *Session) setNotice(kind NoticeKind, msg string) {
	s.mu.Lock()
	s.notice = &Notice{Kind: kind, Message: msg, At: s.now()}
	s.mu.Unlock()
}

func (s *Session) succeed(msg string) {
	s.setNotice(NoticeSuccess, msg)
}

func (s *Session) fail(err error, fallback string) {
	s.logger.Warn("operation failed", zap.Error(err))
	s.setNotice(NoticeError, noticeMessage(err, fallback))
}

func noticeMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "Aguarde a operação anterior finalizar"
	case errors.Is(err, service.ErrNotFound):
		return "Lembrete não encontrado"
	case fallback != "":
		return fallback
	default:
		return err.Error()
	}
}
