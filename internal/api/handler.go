package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/journal"
	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/ledger"
)

// Metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potledger_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "potledger_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potledger_operations_total",
		Help: "Ledger operations by outcome",
	}, []string{"op", "outcome"})
)

type Handler struct {
	ledger  *ledger.Ledger
	journal *journal.Journal // optional; nil when no DB is configured
	logger  *zap.Logger
}

func NewHandler(l *ledger.Ledger, j *journal.Journal, logger *zap.Logger) *Handler {
	return &Handler{ledger: l, journal: j, logger: logger}
}

// Register mounts all pot endpoints under /api/v1.
func (h *Handler) Register(r *mux.Router) {
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/pots", h.CreatePot).Methods("POST")
	v1.HandleFunc("/pots/{id}", h.GetPot).Methods("GET")
	v1.HandleFunc("/pots/{id}/approvers", h.GetApprovers).Methods("GET")
	v1.HandleFunc("/pots/{id}/contributions/{contributor}", h.GetContribution).Methods("GET")
	v1.HandleFunc("/pots/{id}/deposits", h.Deposit).Methods("POST")
	v1.HandleFunc("/pots/{id}/events", h.GetEvents).Methods("GET")
	v1.HandleFunc("/pots/{id}/requests", h.CreateRequest).Methods("POST")
	v1.HandleFunc("/pots/{id}/requests", h.GetRequestCount).Methods("GET")
	v1.HandleFunc("/pots/{id}/requests/{rid}", h.GetRequest).Methods("GET")
	v1.HandleFunc("/pots/{id}/requests/{rid}/approvals", h.Approve).Methods("POST")
	v1.HandleFunc("/pots/{id}/requests/{rid}/execute", h.Execute).Methods("POST")
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caller extracts the authenticated identity the host environment attached
// to the request. The core trusts it completely.
func caller(r *http.Request) string {
	return r.Header.Get("X-Caller")
}

// status maps a ledger error to an HTTP status code.
func status(err error) int {
	switch {
	case errors.Is(err, ledger.ErrPotNotFound), errors.Is(err, ledger.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrNotAnApprover):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrAlreadyExecuted),
		errors.Is(err, ledger.ErrDuplicateApproval),
		errors.Is(err, ledger.ErrQuorumNotMet),
		errors.Is(err, ledger.ErrSettling),
		errors.Is(err, ledger.ErrPotClosed):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrZeroAmount),
		errors.Is(err, ledger.ErrInvalidDestination),
		errors.Is(err, ledger.ErrInvalidApproverSet),
		errors.Is(err, ledger.ErrInvalidThreshold),
		errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[key], 10, 64)
}

func muxVar(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}

// failOp reports a rejected ledger operation: metrics, one log line, and
// the mapped error response.
func (h *Handler) failOp(w http.ResponseWriter, op string, err error, method, endpoint string) {
	opsTotal.WithLabelValues(op, "error").Inc()
	h.logger.Info("operation rejected", zap.String("op", op), zap.Error(err))
	h.respondError(w, status(err), err.Error(), method, endpoint)
}

func (h *Handler) okOp(op string) {
	opsTotal.WithLabelValues(op, "ok").Inc()
}

// Helpers
func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	respondWithJSON(w, code, payload)
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
