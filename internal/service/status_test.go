package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-crm/internal/domain"
	"jobportal-crm/pkg/utils"
)

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusContacted)

	_, err := f.svc.SetStatus(context.Background(), agentA, l.ID, "Archived")
	requireKind(t, err, domain.KindInvalidStatus)
	assert.Equal(t, domain.LeadStatusContacted, f.reload(t, l.ID).Status)
}

func TestSetStatusOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)

	_, err := f.svc.SetStatus(ctx, agentB, l.ID, domain.LeadStatusInterested)
	requireKind(t, err, domain.KindForbidden)
	assert.Equal(t, domain.LeadStatusNew, f.reload(t, l.ID).Status)

	out, err := f.svc.SetStatus(ctx, admin, l.ID, domain.LeadStatusInterested)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusInterested, out.Lead.Status)
	assert.Nil(t, out.Candidate)
}

func TestSetStatusMissingOrDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)
	f.tombstone(t, l.ID)

	_, err := f.svc.SetStatus(ctx, agentA, l.ID, domain.LeadStatusContacted)
	requireKind(t, err, domain.KindNotFound)
	_, err = f.svc.SetStatus(ctx, agentA, "nope", domain.LeadStatusContacted)
	requireKind(t, err, domain.KindNotFound)
}

func TestSetStatusAllowsAnyTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)

	for _, st := range []domain.LeadStatus{
		domain.LeadStatusDiscarded,
		domain.LeadStatusNew,
		domain.LeadStatusConverted,
		domain.LeadStatusContacted,
	} {
		out, err := f.svc.SetStatus(ctx, agentA, l.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, out.Lead.Status)
		assert.Equal(t, st, f.reload(t, l.ID).Status)
	}
}

func TestShortlistProvisionsCandidateOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusInterested)

	first, err := f.svc.SetStatus(ctx, agentA, l.ID, domain.LeadStatusShortlisted)
	require.NoError(t, err)
	require.NotNil(t, first.Candidate)
	assert.Equal(t, domain.RoleCandidate, first.Candidate.Role)
	assert.Equal(t, "9000000001", first.Candidate.Phone)
	assert.Equal(t, l.Name, first.Candidate.Name)
	assert.Empty(t, first.Candidate.PasswordHash)

	second, err := f.svc.SetStatus(ctx, agentA, l.ID, domain.LeadStatusShortlisted)
	require.NoError(t, err)
	assert.Equal(t, first.Candidate.ID, second.Candidate.ID)

	var n int64
	require.NoError(t, f.db.Model(&domain.User{}).Where("phone = ?", "9000000001").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestShortlistReusesExistingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := "jane@example.com"
	u := &domain.User{ID: utils.NewID(), Email: &email, Name: "Jane", Phone: "9000000001", Role: domain.RoleCandidate}
	require.NoError(t, f.users.Create(ctx, u))
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusContacted)

	out, err := f.svc.SetStatus(ctx, agentA, l.ID, domain.LeadStatusShortlisted)
	require.NoError(t, err)
	assert.Equal(t, u.ID, out.Candidate.ID)
}

func TestShortlistCarriesLeadEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)
	_, err := f.leads.UpdateLive(ctx, l.ID, map[string]any{"email": " Jane@Example.com "})
	require.NoError(t, err)

	out, err := f.svc.SetStatus(ctx, agentA, l.ID, domain.LeadStatusShortlisted)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", out.Candidate.EmailValue())
}

func TestRecordCallPromotesNewLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)

	out, err := f.svc.RecordCall(ctx, agentA, l.ID, 95, "left voicemail")
	require.NoError(t, err)
	assert.Equal(t, "agent-a", out.Call.AgentID)
	assert.Equal(t, l.ID, out.Call.LeadID)
	assert.Equal(t, 95, out.Call.DurationSeconds)
	assert.Equal(t, domain.LeadStatusContacted, out.Lead.Status)
	contacted := f.reload(t, l.ID)
	assert.Equal(t, domain.LeadStatusContacted, contacted.Status)

	again, err := f.svc.RecordCall(ctx, agentA, l.ID, 30, "follow-up")
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusContacted, again.Lead.Status)
	after := f.reload(t, l.ID)
	assert.Equal(t, domain.LeadStatusContacted, after.Status)
	assert.True(t, contacted.UpdatedAt.Equal(after.UpdatedAt), "second call must not rewrite the lead")

	calls, err := f.svc.ListCalls(ctx, agentA, l.ID)
	require.NoError(t, err)
	assert.Len(t, calls, 2)
}

func TestRecordCallKeepsLaterStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusInterested)

	out, err := f.svc.RecordCall(ctx, agentA, l.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusInterested, out.Lead.Status)

	calls, err := f.svc.ListCalls(ctx, agentA, l.ID)
	require.NoError(t, err)
	assert.Len(t, calls, 1)
}

func TestRecordCallGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)
	gone := f.seedLead(t, "agent-a", "9000000002", domain.LeadStatusNew)
	f.tombstone(t, gone.ID)

	_, err := f.svc.RecordCall(ctx, agentB, l.ID, 10, "")
	requireKind(t, err, domain.KindForbidden)
	_, err = f.svc.RecordCall(ctx, admin, l.ID, 10, "")
	requireKind(t, err, domain.KindForbidden)
	_, err = f.svc.RecordCall(ctx, agentA, l.ID, -1, "")
	requireKind(t, err, domain.KindBadInput)
	_, err = f.svc.RecordCall(ctx, agentA, gone.ID, 10, "")
	requireKind(t, err, domain.KindNotFound)
	_, err = f.svc.RecordCall(ctx, agentA, "missing", 10, "")
	requireKind(t, err, domain.KindNotFound)

	n, err := f.calls.CountByAgent(ctx, "agent-a")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, domain.LeadStatusNew, f.reload(t, l.ID).Status)
}

func TestListCallsOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)

	_, err := f.svc.ListCalls(ctx, agentB, l.ID)
	requireKind(t, err, domain.KindForbidden)
	calls, err := f.svc.ListCalls(ctx, admin, l.ID)
	require.NoError(t, err)
	assert.Empty(t, calls)
}

// deletingLeads tombstones a lead right after the first read of it, standing
// in for an admin delete that races a mutation.
type deletingLeads struct {
	domain.LeadRepository
	once sync.Once
}

func (d *deletingLeads) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	l, err := d.LeadRepository.FindByID(ctx, id)
	if err == nil && l != nil {
		d.once.Do(func() { _, err = d.LeadRepository.SoftDelete(ctx, id) })
	}
	return l, err
}

func racingDelete(f *fixture) *LeadService {
	return NewLeadService(&deletingLeads{LeadRepository: f.leads}, f.calls, f.users, LeadConfig{}, nil)
}

func TestMutationsDoNotResurrectConcurrentlyDeletedLead(t *testing.T) {
	ctx := context.Background()
	name := "late edit"

	cases := []struct {
		name   string
		status domain.LeadStatus
		run    func(svc *LeadService, id string) error
	}{
		{"record call", domain.LeadStatusNew, func(svc *LeadService, id string) error {
			_, err := svc.RecordCall(ctx, agentA, id, 10, "")
			return err
		}},
		{"set status", domain.LeadStatusInterested, func(svc *LeadService, id string) error {
			_, err := svc.SetStatus(ctx, agentA, id, domain.LeadStatusConverted)
			return err
		}},
		{"update", domain.LeadStatusNew, func(svc *LeadService, id string) error {
			_, err := svc.UpdateLead(ctx, agentA, id, LeadPatch{Name: &name})
			return err
		}},
		{"delete", domain.LeadStatusNew, func(svc *LeadService, id string) error {
			_, err := svc.SoftDeleteLead(ctx, admin, id)
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			l := f.seedLead(t, "agent-a", "9000000001", tc.status)

			requireKind(t, tc.run(racingDelete(f), l.ID), domain.KindNotFound)

			got := f.reload(t, l.ID)
			assert.True(t, got.IsDeleted)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, l.Name, got.Name)

			page, err := f.svc.ListLeads(ctx, admin, ListLeadsQuery{})
			require.NoError(t, err)
			assert.Zero(t, page.Total)
			n, err := f.calls.CountByAgent(ctx, "agent-a")
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestRecordCallRacingDeleteOnContactedLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusInterested)

	out, err := racingDelete(f).RecordCall(ctx, agentA, l.ID, 10, "")
	require.NoError(t, err)
	assert.True(t, out.Lead.IsDeleted)
	assert.True(t, f.reload(t, l.ID).IsDeleted)
}

type failingUsers struct {
	domain.UserRepository
	err error
}

func (u failingUsers) Create(context.Context, *domain.User) error { return u.err }

func TestShortlistLeavesLeadUntouchedWhenProvisioningFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusInterested)
	svc := NewLeadService(f.leads, f.calls, failingUsers{UserRepository: f.users, err: errors.New("disk full")}, LeadConfig{}, nil)

	_, err := svc.SetStatus(ctx, agentA, l.ID, domain.LeadStatusShortlisted)
	requireKind(t, err, domain.KindInternal)
	assert.Equal(t, domain.LeadStatusInterested, f.reload(t, l.ID).Status)

	shortlisted := domain.LeadStatusShortlisted
	_, err = svc.UpdateLead(ctx, agentA, l.ID, LeadPatch{Status: &shortlisted})
	requireKind(t, err, domain.KindInternal)
	assert.Equal(t, domain.LeadStatusInterested, f.reload(t, l.ID).Status)
}
