package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lembretes/internal/reminder"
	"lembretes/internal/service"
	"lembretes/internal/session"
)

// maxImportBytes bounds uploaded export files.
const maxImportBytes = 5 << 20

type Handler struct {
	sess   *session.Session
	logger *zap.Logger
	now    func() time.Time
}

func New(sess *session.Session, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sess: sess, logger: logger, now: time.Now}
}

type listResponse struct {
	Items []*reminder.Reminder `json:"items"`
	Stats reminder.Stats       `json:"stats"`
}

type createRequest struct {
	Text string `json:"texto"`
}

// ensureLoaded retries the initial load when it has not succeeded yet. It
// writes the error state and reports false when the store is still
// unreachable.
func (h *Handler) ensureLoaded(w http.ResponseWriter, r *http.Request) bool {
	if h.sess.Loaded() && h.sess.Err() == nil {
		return true
	}
	if err := h.sess.Load(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "LOAD_FAILED", "Erro ao carregar lembretes")
		return false
	}
	return true
}

func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	opts, err := parseViewOptions(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}
	if !h.ensureLoaded(w, r) {
		return
	}
	WriteJSON(w, http.StatusOK, listResponse{
		Items: h.sess.List(opts),
		Stats: h.sess.Stats(),
	})
}

func parseViewOptions(r *http.Request) (reminder.ViewOptions, error) {
	opts := reminder.DefaultViewOptions()
	q := r.URL.Query()
	if v := q.Get("show_completed"); v != "" {
		show, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("show_completed must be a boolean")
		}
		opts.ShowCompleted = show
	}
	sort, err := reminder.ParseSortOrder(q.Get("sort"))
	if err != nil {
		return opts, err
	}
	opts.Sort = sort
	return opts, nil
}

func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Corpo da requisição inválido")
		return
	}
	if !h.ensureLoaded(w, r) {
		return
	}
	created, err := h.sess.Add(r.Context(), req.Text)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch service.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Corpo da requisição inválido")
		return
	}
	if patch.Empty() {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Nenhuma alteração informada")
		return
	}
	if !h.ensureLoaded(w, r) {
		return
	}
	updated, err := h.sess.Update(r.Context(), id, patch)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) ToggleReminder(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	updated, err := h.sess.Toggle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	if err := h.sess.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearReminders(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.Clear(r.Context()); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.sess.Export(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, service.ExportFilename(h.now())))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write export", zap.Error(err))
	}
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Falha ao ler o arquivo enviado")
		return
	}
	res, err := h.sess.Import(r.Context(), body)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.sess.Info(r.Context()))
}

// Notice returns the latest user notice, or 204 once it has expired.
func (h *Handler) Notice(w http.ResponseWriter, r *http.Request) {
	n, ok := h.sess.Notice()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
