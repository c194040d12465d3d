package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/domain"
	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/ledger"
)

func setupTestRouter(t *testing.T) (*mux.Router, *ledger.Recorder) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	rec := ledger.NewRecorder()
	sink := ledger.SinkFunc(func(context.Context, string, int64) error { return nil })
	l := ledger.New(sink, rec)

	r := mux.NewRouter()
	NewHandler(l, nil, logger).Register(r)
	return r, rec
}

func do(t *testing.T, r *mux.Router, method, path, caller string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller != "" {
		req.Header.Set("X-Caller", caller)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestPotLifecycleOverHTTP(t *testing.T) {
	r, rec := setupTestRouter(t)

	w := do(t, r, "POST", "/api/v1/pots", "alice", domain.CreatePotRequest{
		Name:         "team",
		Approvers:    []string{"alice", "bob", "carol"},
		MinApprovals: 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]int64
	decode(t, w, &created)
	potID := created["pot_id"]
	require.NotZero(t, potID)
	assert.Contains(t, w.Header().Get("Location"), "/api/v1/pots/1")

	w = do(t, r, "POST", "/api/v1/pots/1/deposits", "dave", domain.DepositRequest{Amount: 100})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, "POST", "/api/v1/pots/1/requests", "dave", domain.WithdrawProposal{
		To: "eve", Amount: 40, Description: "supplies",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var req map[string]int64
	decode(t, w, &req)
	assert.Zero(t, req["request_id"])

	w = do(t, r, "POST", "/api/v1/pots/1/requests/0/approvals", "alice", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var approval map[string]int
	decode(t, w, &approval)
	assert.Equal(t, 1, approval["approval_count"])

	// Quorum not reached yet.
	w = do(t, r, "POST", "/api/v1/pots/1/requests/0/execute", "dave", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, "POST", "/api/v1/pots/1/requests/0/approvals", "bob", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, "POST", "/api/v1/pots/1/requests/0/execute", "dave", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, "GET", "/api/v1/pots/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary domain.PotSummary
	decode(t, w, &summary)
	assert.Equal(t, int64(60), summary.Balance)
	assert.Equal(t, 3, summary.ApproverCount)
	assert.Equal(t, 2, summary.MinApprovals)

	w = do(t, r, "GET", "/api/v1/pots/1/requests/0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail domain.WithdrawRequest
	decode(t, w, &detail)
	assert.True(t, detail.Executed)
	assert.Equal(t, 2, detail.ApprovalCount)

	executed := 0
	for _, e := range rec.Events() {
		if e.Kind == domain.EventRequestExecuted {
			executed++
		}
	}
	assert.Equal(t, 1, executed)
}

func TestErrorMapping(t *testing.T) {
	r, _ := setupTestRouter(t)

	// Mutations require the caller identity header.
	w := do(t, r, "POST", "/api/v1/pots", "", domain.CreatePotRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, "POST", "/api/v1/pots", "alice", domain.CreatePotRequest{
		Name: "p", Approvers: []string{"a", "b"}, MinApprovals: 5,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, "POST", "/api/v1/pots/42/deposits", "dave", domain.DepositRequest{Amount: 10})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, "GET", "/api/v1/pots/42", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, "POST", "/api/v1/pots", "alice", domain.CreatePotRequest{
		Name: "p", Approvers: []string{"a", "b"}, MinApprovals: 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, "POST", "/api/v1/pots/1/deposits", "dave", domain.DepositRequest{Amount: -2})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, "POST", "/api/v1/pots/1/requests", "dave", domain.WithdrawProposal{To: "eve", Amount: 10})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	require.Equal(t, http.StatusCreated,
		do(t, r, "POST", "/api/v1/pots/1/deposits", "dave", domain.DepositRequest{Amount: 100}).Code)
	require.Equal(t, http.StatusCreated,
		do(t, r, "POST", "/api/v1/pots/1/requests", "dave", domain.WithdrawProposal{To: "eve", Amount: 10}).Code)

	// Non-approver approval is forbidden; duplicate approval conflicts.
	w = do(t, r, "POST", "/api/v1/pots/1/requests/0/approvals", "mallory", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, http.StatusCreated,
		do(t, r, "POST", "/api/v1/pots/1/requests/0/approvals", "a", nil).Code)
	w = do(t, r, "POST", "/api/v1/pots/1/requests/0/approvals", "a", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK,
		do(t, r, "POST", "/api/v1/pots/1/requests/0/execute", "anyone", nil).Code)
	w = do(t, r, "POST", "/api/v1/pots/1/requests/0/execute", "anyone", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// No journal configured.
	w = do(t, r, "GET", "/api/v1/pots/1/events", "", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestContributionQuery(t *testing.T) {
	r, _ := setupTestRouter(t)

	require.Equal(t, http.StatusCreated,
		do(t, r, "POST", "/api/v1/pots", "alice", domain.CreatePotRequest{
			Name: "p", Approvers: []string{"a"}, MinApprovals: 1,
		}).Code)
	require.Equal(t, http.StatusCreated,
		do(t, r, "POST", "/api/v1/pots/1/deposits", "dave", domain.DepositRequest{Amount: 70}).Code)

	w := do(t, r, "GET", "/api/v1/pots/1/contributions/dave", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]int64
	decode(t, w, &got)
	assert.Equal(t, int64(70), got["amount"])

	w = do(t, r, "GET", "/api/v1/pots/1/approvers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var approvers map[string][]string
	decode(t, w, &approvers)
	assert.Equal(t, []string{"a"}, approvers["approvers"])

	w = do(t, r, "GET", "/api/v1/pots/1/requests", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var count map[string]int
	decode(t, w, &count)
	assert.Zero(t, count["count"])
}

func TestTransferFailureSurfacesBadGateway(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sink := ledger.SinkFunc(func(context.Context, string, int64) error {
		return assert.AnError
	})
	l := ledger.New(sink, nil)
	r := mux.NewRouter()
	NewHandler(l, nil, logger).Register(r)

	require.Equal(t, http.StatusCreated,
		do(t, r, "POST", "/api/v1/pots", "alice", domain.CreatePotRequest{
			Name: "p", Approvers: []string{"a"}, MinApprovals: 1,
		}).Code)
	require.Equal(t, http.StatusCreated,
		do(t, r, "POST", "/api/v1/pots/1/deposits", "dave", domain.DepositRequest{Amount: 100}).Code)
	require.Equal(t, http.StatusCreated,
		do(t, r, "POST", "/api/v1/pots/1/requests", "dave", domain.WithdrawProposal{To: "eve", Amount: 40}).Code)
	require.Equal(t, http.StatusCreated,
		do(t, r, "POST", "/api/v1/pots/1/requests/0/approvals", "a", nil).Code)

	w := do(t, r, "POST", "/api/v1/pots/1/requests/0/execute", "dave", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// The rollback leaves the request executable once the sink recovers.
	w = do(t, r, "GET", "/api/v1/pots/1", "", nil)
	var summary domain.PotSummary
	decode(t, w, &summary)
	assert.Equal(t, int64(100), summary.Balance)
}
