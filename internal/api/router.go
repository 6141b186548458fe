package api

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ws "github.com/Priya8975/merchant-activity-service/internal/websocket"
)

// NewRouter creates and configures the HTTP router. Analytics routes are
// only mounted when analytics is non-nil, the live feed only when hub is.
// A history that can be pinged is reported by the health check.
func NewRouter(launcher Launcher, history RunHistory, analytics AnalyticsSource, hub *ws.Hub, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(timingMiddleware)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeadersMiddleware)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(corsMiddleware)

	importHandler := NewImportHandler(launcher, history, logger)

	var redis Pinger
	if p, ok := history.(Pinger); ok {
		redis = p
	}

	r.Handle("/metrics", promhttp.Handler())

	if hub != nil {
		r.Get("/ws/imports", hub.HandleWebSocket)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler(redis, logger))

		r.Route("/imports", func(r chi.Router) {
			r.Post("/", importHandler.Start)
			r.Get("/current", importHandler.Current)
		})

		if analytics != nil {
			h := NewAnalyticsHandler(analytics, logger)
			r.Route("/analytics", func(r chi.Router) {
				r.Get("/top-merchant", h.TopMerchant)
				r.Get("/monthly-active-merchants", h.MonthlyActiveMerchants)
				r.Get("/product-adoption", h.ProductAdoption)
				r.Get("/kyc-funnel", h.KYCFunnel)
				r.Get("/failure-rates", h.FailureRates)
			})
		}
	})

	return r
}

// corsMiddleware allows read access from browser dashboards on other origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware sets the hardening headers on every response.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

const headerProcessTime = "X-Process-Time"

// timingMiddleware reports handler latency in seconds as X-Process-Time.
// The header is stamped when the status line is written, since headers
// set after that point never reach the client.
func timingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&timedWriter{ResponseWriter: w, start: time.Now()}, r)
	})
}

type timedWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (tw *timedWriter) WriteHeader(code int) {
	if !tw.wroteHeader {
		tw.wroteHeader = true
		elapsed := time.Since(tw.start).Seconds()
		tw.Header().Set(headerProcessTime, strconv.FormatFloat(elapsed, 'f', 6, 64))
	}
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timedWriter) Write(b []byte) (int, error) {
	if !tw.wroteHeader {
		tw.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}

func (tw *timedWriter) Flush() {
	if !tw.wroteHeader {
		tw.WriteHeader(http.StatusOK)
	}
	_ = http.NewResponseController(tw.ResponseWriter).Flush()
}

// Hijack hands the connection to the websocket upgrader.
func (tw *timedWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(tw.ResponseWriter).Hijack()
}

func (tw *timedWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}
