package handlers

import (
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handler, staticDir string) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/lembretes", h.ListReminders).Methods(http.MethodGet)
	api.HandleFunc("/lembretes", h.CreateReminder).Methods(http.MethodPost)
	api.HandleFunc("/lembretes", h.ClearReminders).Methods(http.MethodDelete)
	api.HandleFunc("/lembretes/{id}", h.UpdateReminder).Methods(http.MethodPatch)
	api.HandleFunc("/lembretes/{id}", h.DeleteReminder).Methods(http.MethodDelete)
	api.HandleFunc("/lembretes/{id}/toggle", h.ToggleReminder).Methods(http.MethodPost)
	api.HandleFunc("/export", h.Export).Methods(http.MethodGet)
	api.HandleFunc("/import", h.Import).Methods(http.MethodPost)
	api.HandleFunc("/info", h.Info).Methods(http.MethodGet)
	api.HandleFunc("/notice", h.Notice).Methods(http.MethodGet)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	if staticDir != "" {
		r.PathPrefix("/").Handler(staticHandler(staticDir))
	}
	return r
}

// staticHandler serves the frontend with a content type derived from the
// file extension.
func staticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if ext := filepath.Ext(req.URL.Path); ext != "" {
			if ctype := mime.TypeByExtension(ext); ctype != "" {
				w.Header().Set("Content-Type", ctype)
			}
		}
		fs.ServeHTTP(w, req)
	})
}
