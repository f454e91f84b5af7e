package http

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obsmw "filehost/internal/observability/middleware"
	"filehost/web"
)

// Router builds the full route table. Static assets, health and metrics are
// mounted outside the gate group and are exempt from session evaluation
// entirely; everything else passes through the gate first.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(obsmw.WithMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	static, _ := fs.Sub(web.Static, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(s.gate)

		r.Get("/", s.handleIndex)

		r.Route("/auth", func(r chi.Router) {
			r.Use(httprate.LimitByIP(30, time.Minute))

			r.Get("/login", s.handleLoginPage)
			r.Post("/login", s.handleLogin)
			r.Get("/register", s.handleRegisterPage)
			r.Post("/register", s.handleRegister)
			r.Get("/2fa/add", s.handleEnrollPage)
			r.Post("/2fa/add", s.handleEnroll)
			r.Get("/password/reset", s.handleResetPage)
			r.Post("/password/reset", s.handleReset)
			r.Get("/password/reset/confirm", s.handleResetConfirmPage)
			r.Post("/password/reset/confirm", s.handleResetConfirm)
			r.Get("/logout", s.handleLogout)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/upload", s.handleUploadPage)
			r.Post("/upload", s.handleUpload)
			r.Get("/upload/bulk", s.handleUploadPage)
			r.Post("/upload/bulk", s.handleUploadBulk)
			r.Get("/{token}", s.handleGetFile)
		})
	})

	return r
}
