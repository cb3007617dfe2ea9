package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lembretes/internal/reminder"
	"lembretes/internal/service"
	"lembretes/internal/session"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

// writeStoreError maps an error from the session onto a status and code.
// Anything unclassified came from a backend.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *reminder.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message)
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Lembrete não encontrado")
	case errors.Is(err, session.ErrBusy):
		WriteError(w, http.StatusConflict, "BUSY", "Aguarde a operação anterior finalizar")
	case errors.Is(err, service.ErrInvalidImport):
		WriteError(w, http.StatusUnprocessableEntity, "IMPORT_REJECTED", err.Error())
	default:
		h.logger.Error("storage error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		WriteError(w, http.StatusBadGateway, "STORAGE_ERROR", "Erro ao acessar o armazenamento")
	}
}
