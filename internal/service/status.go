package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/repo"
	"jobportal-crm/pkg/utils"
)

// StatusChange is the outcome of a status assignment. Candidate is set only
// when the new status is Shortlisted.
type StatusChange struct {
	Lead      *domain.Lead `json:"lead"`
	Candidate *domain.User `json:"candidate,omitempty"`
}

// liveLead loads a lead for mutation: missing and soft-deleted leads are both
// NotFound.
func (s *LeadService) liveLead(ctx context.Context, id string) (*domain.Lead, error) {
	l, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("load lead", err)
	}
	if l == nil || l.IsDeleted {
		return nil, domain.NotFound("Lead not found")
	}
	return l, nil
}

// SetStatus moves a lead to status. Any enumerated status may follow any
// other. Entering Shortlisted makes sure a candidate account exists for the
// lead's phone and returns it.
func (s *LeadService) SetStatus(ctx context.Context, actor domain.Actor, leadID string, status domain.LeadStatus) (*StatusChange, error) {
	if !status.Valid() {
		return nil, domain.InvalidStatus("Invalid status (" + string(status) + ")")
	}
	l, err := s.liveLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwnership(actor, l); err != nil {
		return nil, err
	}
	return s.applyStatus(ctx, l, status)
}

// applyStatus persists an already-validated status on an owned live lead.
// The candidate is resolved before the write so a failed provisioning leaves
// the lead untouched.
func (s *LeadService) applyStatus(ctx context.Context, l *domain.Lead, status domain.LeadStatus) (*StatusChange, error) {
	out := &StatusChange{}
	if status == domain.LeadStatusShortlisted {
		u, err := s.resolveCandidate(ctx, l)
		if err != nil {
			return nil, err
		}
		out.Candidate = u
	}

	prev := l.Status
	updated, err := s.writeLive(ctx, l.ID, map[string]any{"status": status})
	if err != nil {
		return nil, err
	}
	leadStatusChanges.WithLabelValues(string(status)).Inc()
	s.log.Info("lead status changed",
		zap.String("lead_id", l.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
	)
	out.Lead = updated
	return out, nil
}

// writeLive updates the given columns of a lead that must still be live and
// returns the stored row. A lead deleted since it was read is NotFound.
func (s *LeadService) writeLive(ctx context.Context, id string, fields map[string]any) (*domain.Lead, error) {
	ok, err := s.leads.UpdateLive(ctx, id, fields)
	if err != nil {
		if repo.IsDuplicateKey(err) {
			return nil, domain.DuplicateKey("A lead with this phone already exists", err)
		}
		return nil, domain.Internal("save lead", err)
	}
	if !ok {
		return nil, domain.NotFound("Lead not found")
	}
	return s.liveLead(ctx, id)
}

// resolveCandidate returns the user registered under the lead's phone,
// creating a password-less candidate when none exists. Repeated calls for
// the same phone converge on one account.
func (s *LeadService) resolveCandidate(ctx context.Context, l *domain.Lead) (*domain.User, error) {
	u, err := s.users.FindByPhone(ctx, l.Phone)
	if err != nil {
		return nil, domain.Internal("find candidate", err)
	}
	if u != nil {
		return u, nil
	}
	u = &domain.User{
		ID:    utils.NewID(),
		Name:  l.Name,
		Phone: l.Phone,
		Role:  domain.RoleCandidate,
	}
	if email := strings.ToLower(strings.TrimSpace(l.Email)); email != "" {
		// an email already claimed by another account is left off
		if other, err := s.users.FindByEmail(ctx, email); err == nil && other == nil {
			u.Email = &email
		}
	}
	err = s.users.Create(ctx, u)
	if err != nil && u.Email != nil && repo.IsDuplicateKey(err) {
		// email held by a banned account
		u.Email = nil
		err = s.users.Create(ctx, u)
	}
	if err != nil {
		return nil, domain.Internal("create candidate", err)
	}
	candidatesProvisioned.Inc()
	s.log.Info("candidate provisioned from shortlist",
		zap.String("lead_id", l.ID),
		zap.String("user_id", u.ID),
	)
	return u, nil
}

// CallResult carries the new call log and the lead as it stands afterwards.
type CallResult struct {
	Call *domain.CallLog `json:"call"`
	Lead *domain.Lead    `json:"lead"`
}

// RecordCall logs a call by the owning agent. A lead still in New is
// promoted to Contacted in the same operation.
func (s *LeadService) RecordCall(ctx context.Context, actor domain.Actor, leadID string, durationSeconds int, notes string) (*CallResult, error) {
	if !actor.IsAgent() {
		return nil, domain.Forbidden("only agents can log calls")
	}
	if durationSeconds < 0 {
		return nil, domain.BadInput("duration must not be negative")
	}
	l, err := s.liveLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if l.AgentID != actor.ID {
		return nil, domain.Forbidden("Not your lead")
	}

	if l.Status == domain.LeadStatusNew {
		promoted, err := s.leads.PromoteStatus(ctx, l.ID, domain.LeadStatusNew, domain.LeadStatusContacted)
		if err != nil {
			return nil, domain.Internal("promote lead", err)
		}
		if promoted {
			leadStatusChanges.WithLabelValues(string(domain.LeadStatusContacted)).Inc()
		} else if _, err := s.liveLead(ctx, l.ID); err != nil {
			// deleted since it was read
			return nil, err
		}
	}

	c := &domain.CallLog{
		ID:              utils.NewID(),
		LeadID:          l.ID,
		AgentID:         actor.ID,
		DurationSeconds: durationSeconds,
		Notes:           notes,
	}
	if err := s.calls.Create(ctx, c); err != nil {
		return nil, domain.Internal("create call log", err)
	}
	callsLogged.Inc()

	cur, err := s.leads.FindByID(ctx, l.ID)
	if err != nil {
		return nil, domain.Internal("reload lead", err)
	}
	if cur != nil {
		l = cur
	}
	s.log.Info("call logged",
		zap.String("lead_id", l.ID),
		zap.String("agent_id", actor.ID),
		zap.Int("duration_s", durationSeconds),
	)
	return &CallResult{Call: c, Lead: l}, nil
}

// ListCalls returns a lead's call history, newest first.
func (s *LeadService) ListCalls(ctx context.Context, actor domain.Actor, leadID string) ([]domain.CallLog, error) {
	l, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, domain.Internal("load lead", err)
	}
	if l == nil {
		return nil, domain.NotFound("Lead not found")
	}
	if err := AssertOwnership(actor, l); err != nil {
		return nil, err
	}
	calls, err := s.calls.ListByLead(ctx, l.ID)
	if err != nil {
		return nil, domain.Internal("list calls", err)
	}
	return calls, nil
}
