package ledger

import "github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/domain"

// Queries have no side effects and require no authorization. Closed pots
// remain readable; only mutations check the closed flag.

// PotSummary returns the pot's read-model.
func (l *Ledger) PotSummary(potID int64) (domain.PotSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pots[potID]
	if !ok {
		return domain.PotSummary{}, ErrPotNotFound
	}
	return domain.PotSummary{
		ID:            p.ID,
		Name:          p.Name,
		Creator:       p.Creator,
		Balance:       p.Balance,
		CreatedAt:     p.CreatedAt,
		Closed:        p.Closed,
		ApproverCount: len(p.Approvers),
		MinApprovals:  p.MinApprovals,
	}, nil
}

// Approvers returns a copy of the pot's approver list.
func (l *Ledger) Approvers(potID int64) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pots[potID]
	if !ok {
		return nil, ErrPotNotFound
	}
	return append([]string(nil), p.Approvers...), nil
}

// Contribution returns a contributor's cumulative deposited amount for a
// pot. Unknown contributors read as zero.
func (l *Ledger) Contribution(potID int64, contributor string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pots[potID]
	if !ok {
		return 0, ErrPotNotFound
	}
	return p.contribs[contributor], nil
}

// RequestCount returns the number of requests ever proposed on the pot.
func (l *Ledger) RequestCount(potID int64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pots[potID]
	if !ok {
		return 0, ErrPotNotFound
	}
	return len(p.requests), nil
}

// Request returns one request's full detail.
func (l *Ledger) Request(potID, requestID int64) (domain.WithdrawRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pots[potID]
	if !ok {
		return domain.WithdrawRequest{}, ErrPotNotFound
	}
	if requestID < 0 || requestID >= int64(len(p.requests)) {
		return domain.WithdrawRequest{}, ErrRequestNotFound
	}
	return p.requests[requestID].WithdrawRequest, nil
}
