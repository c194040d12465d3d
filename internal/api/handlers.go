package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/domain"
)

func (h *Handler) CreatePot(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/pots"))
	defer timer.ObserveDuration()

	who := caller(r)
	if who == "" {
		h.respondError(w, http.StatusBadRequest, "Missing X-Caller header", "POST", "/pots")
		return
	}

	var req domain.CreatePotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/pots")
		return
	}

	id, err := h.ledger.CreatePot(r.Context(), req.Name, req.Approvers, req.MinApprovals, who)
	if err != nil {
		h.failOp(w, "create_pot", err, "POST", "/pots")
		return
	}

	h.okOp("create_pot")
	h.logger.Info("pot created", zap.Int64("pot_id", id), zap.String("creator", who))
	w.Header().Set("Location", fmt.Sprintf("/api/v1/pots/%d", id))
	h.respondJSON(w, http.StatusCreated, map[string]int64{"pot_id": id}, "POST", "/pots")
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/pots/{id}/deposits"))
	defer timer.ObserveDuration()

	who := caller(r)
	if who == "" {
		h.respondError(w, http.StatusBadRequest, "Missing X-Caller header", "POST", "/pots/{id}/deposits")
		return
	}

	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "POST", "/pots/{id}/deposits")
		return
	}

	var req domain.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/pots/{id}/deposits")
		return
	}

	if err := h.ledger.Deposit(r.Context(), potID, req.Amount, who); err != nil {
		h.failOp(w, "deposit", err, "POST", "/pots/{id}/deposits")
		return
	}

	h.okOp("deposit")
	h.logger.Info("deposit accepted",
		zap.Int64("pot_id", potID),
		zap.String("contributor", who),
		zap.Int64("amount", req.Amount))
	h.respondJSON(w, http.StatusCreated, map[string]int64{"pot_id": potID, "amount": req.Amount}, "POST", "/pots/{id}/deposits")
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/pots/{id}/requests"))
	defer timer.ObserveDuration()

	who := caller(r)
	if who == "" {
		h.respondError(w, http.StatusBadRequest, "Missing X-Caller header", "POST", "/pots/{id}/requests")
		return
	}

	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "POST", "/pots/{id}/requests")
		return
	}

	var req domain.WithdrawProposal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/pots/{id}/requests")
		return
	}

	id, err := h.ledger.CreateWithdrawRequest(r.Context(), potID, req.To, req.Amount, req.Description, who)
	if err != nil {
		h.failOp(w, "create_request", err, "POST", "/pots/{id}/requests")
		return
	}

	h.okOp("create_request")
	h.logger.Info("withdraw request created",
		zap.Int64("pot_id", potID),
		zap.Int64("request_id", id),
		zap.Int64("amount", req.Amount))
	w.Header().Set("Location", fmt.Sprintf("/api/v1/pots/%d/requests/%d", potID, id))
	h.respondJSON(w, http.StatusCreated, map[string]int64{"request_id": id}, "POST", "/pots/{id}/requests")
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/pots/{id}/requests/{rid}/approvals"))
	defer timer.ObserveDuration()

	who := caller(r)
	if who == "" {
		h.respondError(w, http.StatusBadRequest, "Missing X-Caller header", "POST", "/pots/{id}/requests/{rid}/approvals")
		return
	}

	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "POST", "/pots/{id}/requests/{rid}/approvals")
		return
	}
	requestID, err := pathID(r, "rid")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request id", "POST", "/pots/{id}/requests/{rid}/approvals")
		return
	}

	count, err := h.ledger.ApproveWithdraw(r.Context(), potID, requestID, who)
	if err != nil {
		h.failOp(w, "approve", err, "POST", "/pots/{id}/requests/{rid}/approvals")
		return
	}

	h.okOp("approve")
	h.logger.Info("request approved",
		zap.Int64("pot_id", potID),
		zap.Int64("request_id", requestID),
		zap.Int("approval_count", count))
	h.respondJSON(w, http.StatusCreated, map[string]int{"approval_count": count}, "POST", "/pots/{id}/requests/{rid}/approvals")
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/pots/{id}/requests/{rid}/execute"))
	defer timer.ObserveDuration()

	who := caller(r)
	if who == "" {
		h.respondError(w, http.StatusBadRequest, "Missing X-Caller header", "POST", "/pots/{id}/requests/{rid}/execute")
		return
	}

	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "POST", "/pots/{id}/requests/{rid}/execute")
		return
	}
	requestID, err := pathID(r, "rid")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request id", "POST", "/pots/{id}/requests/{rid}/execute")
		return
	}

	if err := h.ledger.ExecuteWithdraw(r.Context(), potID, requestID, who); err != nil {
		h.failOp(w, "execute", err, "POST", "/pots/{id}/requests/{rid}/execute")
		return
	}

	h.okOp("execute")
	h.logger.Info("request executed",
		zap.Int64("pot_id", potID),
		zap.Int64("request_id", requestID),
		zap.String("caller", who))
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "executed"}, "POST", "/pots/{id}/requests/{rid}/execute")
}

func (h *Handler) GetPot(w http.ResponseWriter, r *http.Request) {
	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "GET", "/pots/{id}")
		return
	}

	summary, err := h.ledger.PotSummary(potID)
	if err != nil {
		h.respondError(w, status(err), err.Error(), "GET", "/pots/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, summary, "GET", "/pots/{id}")
}

func (h *Handler) GetApprovers(w http.ResponseWriter, r *http.Request) {
	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "GET", "/pots/{id}/approvers")
		return
	}

	approvers, err := h.ledger.Approvers(potID)
	if err != nil {
		h.respondError(w, status(err), err.Error(), "GET", "/pots/{id}/approvers")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string][]string{"approvers": approvers}, "GET", "/pots/{id}/approvers")
}

func (h *Handler) GetContribution(w http.ResponseWriter, r *http.Request) {
	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "GET", "/pots/{id}/contributions/{contributor}")
		return
	}

	contributor := muxVar(r, "contributor")
	amount, err := h.ledger.Contribution(potID, contributor)
	if err != nil {
		h.respondError(w, status(err), err.Error(), "GET", "/pots/{id}/contributions/{contributor}")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int64{"amount": amount}, "GET", "/pots/{id}/contributions/{contributor}")
}

func (h *Handler) GetRequestCount(w http.ResponseWriter, r *http.Request) {
	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "GET", "/pots/{id}/requests")
		return
	}

	count, err := h.ledger.RequestCount(potID)
	if err != nil {
		h.respondError(w, status(err), err.Error(), "GET", "/pots/{id}/requests")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int{"count": count}, "GET", "/pots/{id}/requests")
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "GET", "/pots/{id}/requests/{rid}")
		return
	}
	requestID, err := pathID(r, "rid")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request id", "GET", "/pots/{id}/requests/{rid}")
		return
	}

	req, err := h.ledger.Request(potID, requestID)
	if err != nil {
		h.respondError(w, status(err), err.Error(), "GET", "/pots/{id}/requests/{rid}")
		return
	}
	h.respondJSON(w, http.StatusOK, req, "GET", "/pots/{id}/requests/{rid}")
}

// GetEvents serves the persisted audit trail for a pot. Requires the
// journal to be configured.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.respondError(w, http.StatusNotImplemented, "Audit journal not configured", "GET", "/pots/{id}/events")
		return
	}

	potID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pot id", "GET", "/pots/{id}/events")
		return
	}

	events, err := h.journal.Recent(r.Context(), potID, 100)
	if err != nil {
		h.logger.Error("journal read failed", zap.Int64("pot_id", potID), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Journal unavailable", "GET", "/pots/{id}/events")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"events": events}, "GET", "/pots/{id}/events")
}
