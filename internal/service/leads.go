package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/repo"
	"jobportal-crm/pkg/utils"
)

type CreateLeadInput struct {
	Name     string
	Phone    string
	Location string
	Email    string
	Notes    string
	Source   domain.LeadSource
	Status   domain.LeadStatus
}

// LeadPatch holds the editable fields of a lead; nil means unchanged. The
// owning agent, the deleted flag and the id are not editable.
type LeadPatch struct {
	Name     *string
	Phone    *string
	Location *string
	Email    *string
	Notes    *string
	Source   *domain.LeadSource
	Status   *domain.LeadStatus
}

type ListLeadsQuery struct {
	Page    int
	Limit   int
	Status  domain.LeadStatus
	AgentID string
}

type LeadPage struct {
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
	Data  []domain.Lead `json:"data"`
}

func validPhone(p string) bool { return utf8.RuneCountInString(p) >= domain.MinPhoneLength }

// CreateLead adds a single lead owned by the calling agent.
func (s *LeadService) CreateLead(ctx context.Context, actor domain.Actor, in CreateLeadInput) (*domain.Lead, error) {
	if !actor.IsAgent() {
		return nil, domain.Forbidden("only agents can create leads")
	}
	name, phone := strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone)
	if name == "" || phone == "" {
		return nil, domain.BadInput("name and phone are required")
	}
	if !validPhone(phone) {
		return nil, domain.BadInput("Invalid phone number (" + phone + ")")
	}
	status := in.Status
	if status == "" {
		status = domain.LeadStatusNew
	}
	if !status.Valid() {
		return nil, domain.InvalidStatus("Invalid status (" + string(status) + ")")
	}
	source := in.Source
	if source == "" {
		source = domain.LeadSourceManual
	}
	if !source.Valid() {
		return nil, domain.BadInput("Invalid source (" + string(source) + ")")
	}

	l := &domain.Lead{
		ID:       utils.NewID(),
		Name:     name,
		Phone:    phone,
		Location: strings.TrimSpace(in.Location),
		Email:    strings.TrimSpace(in.Email),
		Notes:    in.Notes,
		Source:   source,
		Status:   status,
		AgentID:  actor.ID,
	}
	if err := s.leads.Create(ctx, l); err != nil {
		if repo.IsDuplicateKey(err) {
			return nil, domain.DuplicateKey("A lead with this phone already exists", err)
		}
		return nil, domain.Internal("create lead", err)
	}
	s.log.Info("lead created", zap.String("lead_id", l.ID), zap.String("agent_id", actor.ID))
	return l, nil
}

// GetLead resolves a lead by id, soft-deleted ones included.
func (s *LeadService) GetLead(ctx context.Context, actor domain.Actor, id string) (*domain.Lead, error) {
	l, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("load lead", err)
	}
	if l == nil {
		return nil, domain.NotFound("Lead not found")
	}
	if err := AssertOwnership(actor, l); err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateLead applies patch to a live lead. Setting a status follows the same
// rules as SetStatus, shortlist provisioning included.
func (s *LeadService) UpdateLead(ctx context.Context, actor domain.Actor, id string, patch LeadPatch) (*StatusChange, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.InvalidStatus("Invalid status (" + string(*patch.Status) + ")")
	}
	if patch.Source != nil && !patch.Source.Valid() {
		return nil, domain.BadInput("Invalid source (" + string(*patch.Source) + ")")
	}
	l, err := s.liveLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwnership(actor, l); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Name != nil {
		v := strings.TrimSpace(*patch.Name)
		if v == "" {
			return nil, domain.BadInput("name must not be empty")
		}
		l.Name, fields["name"] = v, v
	}
	if patch.Phone != nil {
		v := strings.TrimSpace(*patch.Phone)
		if !validPhone(v) {
			return nil, domain.BadInput("Invalid phone number (" + v + ")")
		}
		l.Phone, fields["phone"] = v, v
	}
	if patch.Location != nil {
		v := strings.TrimSpace(*patch.Location)
		l.Location, fields["location"] = v, v
	}
	if patch.Email != nil {
		v := strings.TrimSpace(*patch.Email)
		l.Email, fields["email"] = v, v
	}
	if patch.Notes != nil {
		l.Notes, fields["notes"] = *patch.Notes, *patch.Notes
	}
	if patch.Source != nil {
		l.Source, fields["source"] = *patch.Source, *patch.Source
	}
	if len(fields) == 0 && patch.Status == nil {
		return &StatusChange{Lead: l}, nil
	}

	out := &StatusChange{}
	prev := l.Status
	if patch.Status != nil {
		fields["status"] = *patch.Status
		if *patch.Status == domain.LeadStatusShortlisted {
			// resolved from the patched name, phone and email
			u, err := s.resolveCandidate(ctx, l)
			if err != nil {
				return nil, err
			}
			out.Candidate = u
		}
	}
	if out.Lead, err = s.writeLive(ctx, l.ID, fields); err != nil {
		return nil, err
	}

	if patch.Status != nil && prev != *patch.Status {
		leadStatusChanges.WithLabelValues(string(*patch.Status)).Inc()
		s.log.Info("lead status changed",
			zap.String("lead_id", l.ID),
			zap.String("from", string(prev)),
			zap.String("to", string(*patch.Status)),
		)
	}
	return out, nil
}

// SoftDeleteLead marks a live lead deleted and returns the tombstone.
// Deleting twice is NotFound.
func (s *LeadService) SoftDeleteLead(ctx context.Context, actor domain.Actor, id string) (*domain.Lead, error) {
	l, err := s.liveLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwnership(actor, l); err != nil {
		return nil, err
	}
	ok, err := s.leads.SoftDelete(ctx, l.ID)
	if err != nil {
		return nil, domain.Internal("delete lead", err)
	}
	if !ok {
		return nil, domain.NotFound("Lead not found")
	}
	if cur, err := s.leads.FindByID(ctx, l.ID); err == nil && cur != nil {
		l = cur
	} else {
		l.IsDeleted = true
	}
	s.log.Info("lead deleted", zap.String("lead_id", l.ID), zap.String("by", actor.ID))
	return l, nil
}

// ListLeads returns one page of the actor's visible leads, newest first.
func (s *LeadService) ListLeads(ctx context.Context, actor domain.Actor, q ListLeadsQuery) (*LeadPage, error) {
	f, err := ScopeFilter(actor, q.AgentID, q.Status)
	if err != nil {
		return nil, err
	}
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	leads, total, err := s.leads.List(ctx, f, (page-1)*limit, limit)
	if err != nil {
		return nil, domain.Internal("list leads", err)
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	return &LeadPage{
		Total: total,
		Page:  page,
		Pages: int((total + int64(limit) - 1) / int64(limit)),
		Data:  leads,
	}, nil
}

// CountByStatus returns the actor's visible lead counts keyed by status. Every
// enumerated status is present.
func (s *LeadService) CountByStatus(ctx context.Context, actor domain.Actor, agentID string) (map[domain.LeadStatus]int64, error) {
	f, err := ScopeFilter(actor, agentID, "")
	if err != nil {
		return nil, err
	}
	counts, err := s.leads.CountByStatus(ctx, f)
	if err != nil {
		return nil, domain.Internal("count leads", err)
	}
	out := make(map[domain.LeadStatus]int64, len(domain.LeadStatuses))
	for _, st := range domain.LeadStatuses {
		out[st] = counts[st]
	}
	return out, nil
}
