package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Health        http.HandlerFunc
	Metrics       http.Handler
	Zones         http.HandlerFunc
	QuoteStart    http.HandlerFunc
	QuoteExtend   http.HandlerFunc
	Vehicles      http.Handler
	ParkingStart  http.HandlerFunc
	ParkingExtend http.HandlerFunc
	ParkingActive http.HandlerFunc
	History       http.HandlerFunc
	Countdown     http.HandlerFunc
	Cancel        http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", routes.Metrics)
	}
	if routes.Zones != nil {
		mux.Handle("/zones", method(http.MethodGet, routes.Zones))
	}
	if routes.QuoteStart != nil {
		mux.Handle("/quotes/start", method(http.MethodPost, routes.QuoteStart))
	}
	if routes.QuoteExtend != nil {
		mux.Handle("/quotes/extend", method(http.MethodPost, routes.QuoteExtend))
	}
	if routes.Vehicles != nil {
		mux.Handle("/vehicles", routes.Vehicles)
	}
	if routes.ParkingStart != nil {
		mux.Handle("/parking/start", method(http.MethodPost, routes.ParkingStart))
	}
	if routes.ParkingExtend != nil {
		mux.Handle("/parking/extend", method(http.MethodPost, routes.ParkingExtend))
	}
	if routes.ParkingActive != nil {
		mux.Handle("/parking/active", method(http.MethodGet, routes.ParkingActive))
	}
	if routes.History != nil {
		mux.Handle("/parking/history", method(http.MethodGet, routes.History))
	}
	if routes.Countdown != nil {
		mux.Handle("/parking/ws", method(http.MethodGet, routes.Countdown))
	}
	if routes.Cancel != nil {
		mux.Handle("/internal/parking/cancel", method(http.MethodPost, routes.Cancel))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
