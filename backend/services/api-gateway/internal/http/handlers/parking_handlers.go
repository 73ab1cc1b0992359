package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"smartparking/backend/services/api-gateway/internal/clients"
	"smartparking/backend/services/api-gateway/internal/http/middleware"
)

const maxBodyBytes = 1 << 20

// ParkingProxy is the upstream used by ParkingHandlers.
type ParkingProxy interface {
	Zones(ctx context.Context) (*clients.Response, error)
	Forward(ctx context.Context, userID int64, method, path string, query url.Values, body []byte) (*clients.Response, error)
}

// ParkingHandlers proxy parking endpoints.
type ParkingHandlers struct {
	client ParkingProxy
	logger *zap.Logger
}

// NewParkingHandlers builds handlers.
func NewParkingHandlers(client ParkingProxy, logger *zap.Logger) *ParkingHandlers {
	return &ParkingHandlers{client: client, logger: logger}
}

// Zones handles GET /api/zones.
func (h *ParkingHandlers) Zones(w http.ResponseWriter, r *http.Request) {
	resp, err := h.client.Zones(r.Context())
	if err != nil {
		h.logger.Error("zones upstream failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "parking service unavailable")
		return
	}
	writeRaw(w, resp)
}

// Proxy forwards the caller's request to path on parking-service.
func (h *ParkingHandlers) Proxy(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var body []byte
		if r.Body != nil {
			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				writeError(w, http.StatusBadRequest, "unable to read body")
				return
			}
			body = data
		}

		resp, err := h.client.Forward(r.Context(), userID, r.Method, path, upstreamQuery(r), body)
		if err != nil {
			h.logger.Error("parking upstream failed",
				zap.String("path", path),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			writeError(w, http.StatusBadGateway, "parking service unavailable")
			return
		}
		writeRaw(w, resp)
	}
}

// NewCountdownProxy returns a reverse proxy for the websocket countdown feed.
func NewCountdownProxy(baseURL string, logger *zap.Logger) (http.Handler, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = singleJoin(target.Path, "/parking/ws")
			pr.Out.URL.RawPath = ""
			pr.Out.URL.RawQuery = upstreamQuery(pr.In).Encode()
			pr.Out.Header.Del("Authorization")
			if userID, ok := middleware.UserIDFromContext(pr.In.Context()); ok {
				pr.Out.Header.Set(middleware.UserIDHeader, strconv.FormatInt(userID, 10))
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("countdown upstream failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "parking service unavailable")
		},
	}
	return proxy, nil
}

// upstreamQuery drops gateway-only parameters.
func upstreamQuery(r *http.Request) url.Values {
	q := r.URL.Query()
	q.Del("access_token")
	return q
}

func singleJoin(base, path string) string {
	if base == "" || base == "/" {
		return path
	}
	if base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + path
}
