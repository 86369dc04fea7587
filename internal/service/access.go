package service

import "jobportal-crm/internal/domain"

// ScopeFilter computes the lead query for actor. Admins see every agent's
// leads, optionally narrowed to requestedAgentID; agents always see only
// their own and requestedAgentID is ignored. Other roles are refused.
// Soft-deleted leads are always excluded.
func ScopeFilter(actor domain.Actor, requestedAgentID string, status domain.LeadStatus) (domain.LeadFilter, error) {
	if status != "" && !status.Valid() {
		return domain.LeadFilter{}, domain.InvalidStatus("Invalid status (" + string(status) + ")")
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return domain.LeadFilter{AgentID: requestedAgentID, Status: status}, nil
	case domain.RoleAgent:
		return domain.LeadFilter{AgentID: actor.ID, Status: status}, nil
	default:
		return domain.LeadFilter{}, domain.Forbidden("only admins and agents can access leads")
	}
}

// AssertOwnership guards every single-lead operation.
func AssertOwnership(actor domain.Actor, lead *domain.Lead) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsAgent() && lead.AgentID == actor.ID {
		return nil
	}
	return domain.Forbidden("Not your lead")
}
