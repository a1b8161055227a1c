package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/txflow/internal/http/export"
	"github.com/MrJamesThe3rd/txflow/internal/http/importcsv"
	"github.com/MrJamesThe3rd/txflow/internal/http/transaction"
	"github.com/MrJamesThe3rd/txflow/internal/metrics"
)

func New(
	transactionsV1 *transaction.Handler,
	importsV1 *importcsv.Handler,
	exportsV1 *export.Handler,
	allowedOrigins []string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/imports", func(r chi.Router) {
			r.Use(middleware.AllowContentType("multipart/form-data"))
			importsV1.Routes(r)
		})

		r.Route("/exports", exportsV1.Routes)
	})

	return router
}
