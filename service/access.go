package service

import (
	"updown/config"
)

// operatorPolicy authorizes a fixed list of operator account IDs for every
// privileged operation. It is the single-operator trust model; multi-sig or
// role-based policies can replace it behind the AccessPolicy interface.
type operatorPolicy struct {
	operatorIDs []int64
}

// NewOperatorPolicy creates an access policy from the configured operator list
func NewOperatorPolicy(cfg *config.Config) AccessPolicy {
	return &operatorPolicy{operatorIDs: cfg.OperatorIDs}
}

func (p *operatorPolicy) isOperator(accountID int64) bool {
	for _, id := range p.operatorIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

func (p *operatorPolicy) CanCreateRound(accountID int64) bool {
	return p.isOperator(accountID)
}

func (p *operatorPolicy) CanSettle(accountID int64) bool {
	return p.isOperator(accountID)
}

func (p *operatorPolicy) CanSweepFees(accountID int64) bool {
	return p.isOperator(accountID)
}
