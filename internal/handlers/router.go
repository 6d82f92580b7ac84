package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

type Handlers struct {
	Sales     *SalesHandler
	Purchases *PurchaseHandler
	Close     *CloseHandler
	Reconcile *ReconcileHandler
}

func SetupRouter(h Handlers, log zerolog.Logger) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()

	api.Use(requestIDMiddleware)
	api.Use(loggingMiddleware(log))
	api.Use(recoveryMiddleware)
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/facturas", h.Sales.List).Methods(http.MethodGet)
	api.HandleFunc("/facturas/lote", h.Sales.ImportBatch).Methods(http.MethodPost)
	api.HandleFunc("/facturas/import", h.Sales.ImportCSV).Methods(http.MethodPost)
	api.HandleFunc("/facturas/impactar", h.Close.ClosePeriod).Methods(http.MethodPost)
	api.HandleFunc("/facturas/dashboard", h.Sales.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/facturas/{id:[0-9]+}", h.Sales.Update).Methods(http.MethodPut)
	api.HandleFunc("/facturas/{id:[0-9]+}/auditoria", h.Sales.AuditTrail).Methods(http.MethodGet)

	api.HandleFunc("/compras", h.Purchases.List).Methods(http.MethodGet)
	api.HandleFunc("/compras", h.Purchases.Create).Methods(http.MethodPost)
	api.HandleFunc("/compras/lote", h.Purchases.ImportBatch).Methods(http.MethodPost)
	api.HandleFunc("/compras/import", h.Purchases.ImportCSV).Methods(http.MethodPost)
	api.HandleFunc("/compras/dashboard", h.Purchases.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/compras/{id:[0-9]+}", h.Purchases.Update).Methods(http.MethodPut)
	api.HandleFunc("/compras/{id:[0-9]+}/auditoria", h.Purchases.AuditTrail).Methods(http.MethodGet)

	api.HandleFunc("/reconcile", h.Reconcile.Reconcile).Methods(http.MethodPost)

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware puts a request-scoped logger in the context and logs
// each request once it completes.
func loggingMiddleware(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With().
				Str("request_id", w.Header().Get(requestIDHeader)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(reqLog.WithContext(r.Context())))

			reqLog.Info().
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}

// recoveryMiddleware turns a panic into a 500 logged with the request logger
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(r.Context()).Error().Interface("panic", rec).Msg("Panic recovered")
				respondWithError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "healthy",
	}
	respondWithJSON(w, http.StatusOK, response)
}
