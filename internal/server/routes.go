package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes wires middlewares and endpoints.
func (a *App) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", a.handleRegister)
		api.Post("/auth/login", a.handleLogin)

		api.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)
			pr.Get("/me", a.handleMe)

			pr.Route("/plots", func(plots chi.Router) {
				plots.Get("/", a.handleListPlots)
				plots.Post("/", a.handleCreatePlot)
				plots.Get("/{id}", a.handleGetPlot)
				plots.Put("/{id}", a.handleUpdatePlot)
				plots.Delete("/{id}", a.handleDeletePlot)

				plots.Get("/{id}/trees", a.handleListTrees)
				plots.Post("/{id}/trees", a.handleCreateTree)
				plots.Post("/{id}/estimate", a.handleEstimatePlot)
				plots.Get("/{id}/credits", a.handleGetCredits)
				plots.Post("/{id}/credits", a.handleSaveCredits)
				plots.Post("/{id}/export", a.handleExport)
			})

			pr.Route("/trees", func(trees chi.Router) {
				trees.Put("/{id}", a.handleUpdateTree)
				trees.Delete("/{id}", a.handleDeleteTree)
				trees.Post("/{id}/estimate", a.handleEstimateTree)
				trees.Get("/{id}/estimate", a.handleGetEstimate)
			})

			pr.Route("/packages", func(pkgs chi.Router) {
				pkgs.Get("/{id}", a.handleGetPackage)
				pkgs.Get("/{id}/verify", a.handleVerifyPackage)
				pkgs.Post("/{id}/anchor", a.handleAnchorPackage)
			})
		})
	})

	return r
}
