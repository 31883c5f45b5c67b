package metrics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve starts the engine's one outward-facing HTTP surface: a /metrics
// endpoint for Prometheus scraping. Everything else in this system is a
// CLI command, not a server. The returned *http.Server is already
// listening; it shuts down when ctx is cancelled.
func Serve(ctx context.Context, addr string) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		_ = srv.ListenAndServe()
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv
}
