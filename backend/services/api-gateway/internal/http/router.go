package httpserver

import (
	"net/http"

	"smartparking/backend/services/api-gateway/internal/http/handlers"
	"smartparking/backend/services/api-gateway/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	ParkingHandlers *handlers.ParkingHandlers
	Countdown       http.Handler
	HealthHandler   http.HandlerFunc
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	ph := deps.ParkingHandlers

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))
	mux.Handle("/api/zones", method(http.MethodGet, http.HandlerFunc(ph.Zones)))

	authenticated := func(handler http.Handler) http.Handler {
		return middleware.Chain(handler, authMiddleware)
	}

	mux.Handle("/api/quotes/start", method(http.MethodPost, authenticated(ph.Proxy("/quotes/start"))))
	mux.Handle("/api/quotes/extend", method(http.MethodPost, authenticated(ph.Proxy("/quotes/extend"))))
	mux.Handle("/api/vehicles", methods([]string{http.MethodGet, http.MethodPost}, authenticated(ph.Proxy("/vehicles"))))
	mux.Handle("/api/parking/start", method(http.MethodPost, authenticated(ph.Proxy("/parking/start"))))
	mux.Handle("/api/parking/extend", method(http.MethodPost, authenticated(ph.Proxy("/parking/extend"))))
	mux.Handle("/api/parking/active", method(http.MethodGet, authenticated(ph.Proxy("/parking/active"))))
	mux.Handle("/api/parking/history", method(http.MethodGet, authenticated(ph.Proxy("/parking/history"))))
	if deps.Countdown != nil {
		mux.Handle("/api/parking/ws", method(http.MethodGet, authenticated(deps.Countdown)))
	}

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return methods([]string{expected}, handler)
}

func methods(allowed []string, handler http.Handler) http.Handler {
	allow := allowed[0]
	for _, m := range allowed[1:] {
		allow += ", " + m
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, m := range allowed {
			if r.Method == m {
				handler.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Allow", allow)
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}
