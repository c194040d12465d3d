package domain

import "time"

// Pot is a shared fund with a fixed approver set and quorum threshold.
// The approver list and threshold are immutable after creation; only the
// balance moves. Closed is reserved lifecycle state: it is set false at
// creation and no operation currently flips it.
type Pot struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Creator      string    `json:"creator"`
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
	Closed       bool      `json:"closed"`
	Approvers    []string  `json:"approvers"`
	MinApprovals int       `json:"min_approvals"`
}

// PotSummary is the read-model for a pot, exposing the approver count
// rather than the full list.
type PotSummary struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Creator       string    `json:"creator"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
	Closed        bool      `json:"closed"`
	ApproverCount int       `json:"approver_count"`
	MinApprovals  int       `json:"min_approvals"`
}

// WithdrawRequest is a proposed spend from a pot, pending quorum.
// Its ID is the index in the owning pot's append-only request list.
// Executed flips one way only.
type WithdrawRequest struct {
	ID            int64  `json:"id"`
	PotID         int64  `json:"pot_id"`
	Proposer      string `json:"proposer"`
	To            string `json:"to"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	ApprovalCount int    `json:"approval_count"`
	Executed      bool   `json:"executed"`
}

// CreatePotRequest is the DTO for incoming pot-creation requests.
type CreatePotRequest struct {
	Name         string   `json:"name"`
	Approvers    []string `json:"approvers"`
	MinApprovals int      `json:"min_approvals"`
}

// DepositRequest is the DTO for incoming deposits.
type DepositRequest struct {
	Amount int64 `json:"amount"`
}

// WithdrawProposal is the DTO for incoming withdrawal proposals.
type WithdrawProposal struct {
	To          string `json:"to"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// Event kinds emitted by the ledger, exactly once per successful operation.
const (
	EventPotCreated      = "pot_created"
	EventDeposited       = "deposited"
	EventRequestCreated  = "request_created"
	EventRequestApproved = "request_approved"
	EventRequestExecuted = "request_executed"
)

// Event is one entry of the externally observable audit trail. RequestID is
// nil for pot-level events. Fields not meaningful for a kind stay zero.
type Event struct {
	Kind          string    `json:"kind"`
	PotID         int64     `json:"pot_id"`
	RequestID     *int64    `json:"request_id,omitempty"`
	Actor         string    `json:"actor"`
	To            string    `json:"to,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	ApprovalCount int       `json:"approval_count,omitempty"`
	ApproverCount int       `json:"approver_count,omitempty"`
	MinApprovals  int       `json:"min_approvals,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
