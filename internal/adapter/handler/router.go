package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func NewRouter(tickets *TicketHandler, events *EventHandler, log *zap.Logger) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, log, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/pending-events/{id}/activate", tickets.ActivateEvent).Methods(http.MethodPost)
	r.HandleFunc("/events/{id}/mint", tickets.MintEvent).Methods(http.MethodPost)
	r.HandleFunc("/tickets/purchase", tickets.PurchaseTicket).Methods(http.MethodPost)

	r.HandleFunc("/events", events.ListEvents).Methods(http.MethodGet)
	r.HandleFunc("/events/category/{id}", events.EventsByCategory).Methods(http.MethodGet)
	r.HandleFunc("/events/category-type/{id}", events.EventsByCategoryType).Methods(http.MethodGet)
	r.HandleFunc("/events/search/{name}", events.SearchEvents).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}", events.GetEvent).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}/categories/{categoryId}/availability", events.Availability).Methods(http.MethodGet)

	httpLog := log.Named("http")
	r.Use(recoveryMiddleware(httpLog), loggingMiddleware(httpLog))

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

func recoveryMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("recovered from panic", zap.Any("panic", rec), zap.String("path", r.URL.Path))
					writeJSON(w, log, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
