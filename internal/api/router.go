package api

import (
	"net/http"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter returns the data endpoint mounted at config.DataAPIPath.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	r.Get(config.DataAPIPath, h.get)
	r.Post(config.DataAPIPath, h.post)
	r.Put(config.DataAPIPath, h.put)
	r.Delete(config.DataAPIPath, h.delete)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, config.HTTPErrMethodNotAllowed)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Not found")
	})

	return r
}

// corsMiddleware lets the storefront and remote admin panels call the
// endpoint from any origin. Preflight requests end here.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		apiLogger.Debug().
			Str("method", r.Method).
			Str("type", r.URL.Query().Get("type")).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("Data request")
	})
}
