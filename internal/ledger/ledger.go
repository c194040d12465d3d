package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/domain"
)

var (
	ErrPotNotFound        = errors.New("pot not found")
	ErrRequestNotFound    = errors.New("request not found")
	ErrPotClosed          = errors.New("pot closed")
	ErrZeroAmount         = errors.New("amount must be positive")
	ErrInvalidDestination = errors.New("destination must not be empty")
	ErrInvalidApproverSet = errors.New("approver set empty or contains empty identity")
	ErrInvalidThreshold   = errors.New("min approvals out of range")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNotAnApprover      = errors.New("caller is not an approver")
	ErrDuplicateApproval  = errors.New("approver already approved this request")
	ErrAlreadyExecuted    = errors.New("request already executed")
	ErrQuorumNotMet       = errors.New("approval quorum not met")
	ErrSettling           = errors.New("request settlement in progress")
	ErrTransferFailed     = errors.New("external transfer failed")
)

// PaymentSink sends value out of the ledger. It is untrusted: it may fail,
// and it may call back into the ledger before returning.
type PaymentSink interface {
	Transfer(ctx context.Context, to string, amount int64) error
}

// SinkFunc adapts a function to a PaymentSink.
type SinkFunc func(ctx context.Context, to string, amount int64) error

func (f SinkFunc) Transfer(ctx context.Context, to string, amount int64) error {
	return f(ctx, to, amount)
}

// EventSink receives one event per successful operation. Delivery happens
// after the operation's state is committed and is best-effort; it is not
// part of the operation's atomicity.
type EventSink interface {
	Emit(ctx context.Context, e domain.Event)
}

// request wraps the public record with the per-approver set and the
// defensive settlement guard.
type request struct {
	domain.WithdrawRequest
	approved map[string]bool
	settling bool
}

type pot struct {
	domain.Pot
	requests []*request
	contribs map[string]int64
}

// Ledger owns all pot state and applies every operation as one atomic
// transition under a single lock. The lock is released before the payment
// sink is invoked, so a reentrant call observes the already-committed
// executed flag and debited balance.
type Ledger struct {
	mu     sync.Mutex
	pots   map[int64]*pot
	nextID int64

	sink   PaymentSink
	events EventSink
	now    func() time.Time
}

func New(sink PaymentSink, events EventSink) *Ledger {
	return &Ledger{
		pots:   make(map[int64]*pot),
		nextID: 1,
		sink:   sink,
		events: events,
		now:    time.Now,
	}
}

func (l *Ledger) emit(ctx context.Context, e domain.Event) {
	if l.events == nil {
		return
	}
	e.CreatedAt = l.now()
	l.events.Emit(ctx, e)
}

// openPot resolves a pot id and rejects closed pots. Caller holds the lock.
func (l *Ledger) openPot(id int64) (*pot, error) {
	p, ok := l.pots[id]
	if !ok {
		return nil, ErrPotNotFound
	}
	if p.Closed {
		return nil, ErrPotClosed
	}
	return p, nil
}

// CreatePot allocates a new pot with a zero balance and a fixed approver
// set. The approver list is stored verbatim; order carries no semantics,
// it is only used for membership checks.
func (l *Ledger) CreatePot(ctx context.Context, name string, approvers []string, minApprovals int, creator string) (int64, error) {
	if len(approvers) == 0 {
		return 0, ErrInvalidApproverSet
	}
	for _, a := range approvers {
		if a == "" {
			return 0, ErrInvalidApproverSet
		}
	}
	if minApprovals < 1 || minApprovals > len(approvers) {
		return 0, ErrInvalidThreshold
	}

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.pots[id] = &pot{
		Pot: domain.Pot{
			ID:           id,
			Name:         name,
			Creator:      creator,
			Balance:      0,
			CreatedAt:    l.now(),
			Closed:       false,
			Approvers:    append([]string(nil), approvers...),
			MinApprovals: minApprovals,
		},
		contribs: make(map[string]int64),
	}
	l.mu.Unlock()

	l.emit(ctx, domain.Event{
		Kind:          domain.EventPotCreated,
		PotID:         id,
		Actor:         creator,
		ApproverCount: len(approvers),
		MinApprovals:  minApprovals,
	})
	return id, nil
}

// Deposit adds funds to an open pot and records the contributor's running
// total. Contributions are a historical record only; they never gate
// withdrawal.
func (l *Ledger) Deposit(ctx context.Context, potID, amount int64, contributor string) error {
	if amount <= 0 {
		return ErrZeroAmount
	}

	l.mu.Lock()
	p, err := l.openPot(potID)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	p.Balance += amount
	p.contribs[contributor] += amount
	l.mu.Unlock()

	l.emit(ctx, domain.Event{
		Kind:   domain.EventDeposited,
		PotID:  potID,
		Actor:  contributor,
		Amount: amount,
	})
	return nil
}

// CreateWithdrawRequest appends a new request to the pot's ledger. Any
// identity may propose; the balance check here is against the balance at
// proposal time and is re-validated at execution.
func (l *Ledger) CreateWithdrawRequest(ctx context.Context, potID int64, to string, amount int64, description, proposer string) (int64, error) {
	if to == "" {
		return 0, ErrInvalidDestination
	}
	if amount <= 0 {
		return 0, ErrZeroAmount
	}

	l.mu.Lock()
	p, err := l.openPot(potID)
	if err != nil {
		l.mu.Unlock()
		return 0, err
	}
	if amount > p.Balance {
		l.mu.Unlock()
		return 0, ErrInsufficientFunds
	}
	id := int64(len(p.requests))
	p.requests = append(p.requests, &request{
		WithdrawRequest: domain.WithdrawRequest{
			ID:          id,
			PotID:       potID,
			Proposer:    proposer,
			To:          to,
			Amount:      amount,
			Description: description,
		},
		approved: make(map[string]bool),
	})
	l.mu.Unlock()

	l.emit(ctx, domain.Event{
		Kind:      domain.EventRequestCreated,
		PotID:     potID,
		RequestID: &id,
		Actor:     proposer,
		To:        to,
		Amount:    amount,
	})
	return id, nil
}

// ApproveWithdraw records a single-use approval token for the approver on
// the request and returns the new cumulative count. Approval records are
// write-once; there is no rescission.
func (l *Ledger) ApproveWithdraw(ctx context.Context, potID, requestID int64, approver string) (int, error) {
	l.mu.Lock()
	p, err := l.openPot(potID)
	if err != nil {
		l.mu.Unlock()
		return 0, err
	}
	member := false
	for _, a := range p.Approvers {
		if a == approver {
			member = true
			break
		}
	}
	if !member {
		l.mu.Unlock()
		return 0, ErrNotAnApprover
	}
	if requestID < 0 || requestID >= int64(len(p.requests)) {
		l.mu.Unlock()
		return 0, ErrRequestNotFound
	}
	r := p.requests[requestID]
	if r.Executed {
		l.mu.Unlock()
		return 0, ErrAlreadyExecuted
	}
	if r.approved[approver] {
		l.mu.Unlock()
		return 0, ErrDuplicateApproval
	}
	r.approved[approver] = true
	r.ApprovalCount++
	count := r.ApprovalCount
	l.mu.Unlock()

	l.emit(ctx, domain.Event{
		Kind:          domain.EventRequestApproved,
		PotID:         potID,
		RequestID:     &requestID,
		Actor:         approver,
		ApprovalCount: count,
	})
	return count, nil
}

// ExecuteWithdraw disburses an approved request. Any caller may trigger it;
// authorization happened at approval time. The executed flag and balance
// debit are committed before the sink is invoked, so a reentrant call made
// during the transfer sees the request as already settled. If the transfer
// fails, both mutations are rolled back and no event is emitted.
func (l *Ledger) ExecuteWithdraw(ctx context.Context, potID, requestID int64, caller string) error {
	l.mu.Lock()
	p, err := l.openPot(potID)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if requestID < 0 || requestID >= int64(len(p.requests)) {
		l.mu.Unlock()
		return ErrRequestNotFound
	}
	r := p.requests[requestID]
	if r.Executed {
		l.mu.Unlock()
		return ErrAlreadyExecuted
	}
	if r.settling {
		l.mu.Unlock()
		return ErrSettling
	}
	if r.ApprovalCount < p.MinApprovals {
		l.mu.Unlock()
		return ErrQuorumNotMet
	}
	if r.Amount > p.Balance {
		l.mu.Unlock()
		return ErrInsufficientFunds
	}

	// Effects before the interaction.
	r.Executed = true
	r.settling = true
	p.Balance -= r.Amount
	to, amount := r.To, r.Amount
	l.mu.Unlock()

	if err := l.sink.Transfer(ctx, to, amount); err != nil {
		l.mu.Lock()
		r.Executed = false
		r.settling = false
		p.Balance += amount
		l.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	l.mu.Lock()
	r.settling = false
	l.mu.Unlock()

	l.emit(ctx, domain.Event{
		Kind:      domain.EventRequestExecuted,
		PotID:     potID,
		RequestID: &requestID,
		Actor:     caller,
		To:        to,
		Amount:    amount,
	})
	return nil
}
