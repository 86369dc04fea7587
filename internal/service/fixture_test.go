package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/repo"
	"jobportal-crm/internal/repo/repotest"
	"jobportal-crm/pkg/utils"
)

var (
	admin   = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	agentA  = domain.Actor{ID: "agent-a", Role: domain.RoleAgent}
	agentB  = domain.Actor{ID: "agent-b", Role: domain.RoleAgent}
	visitor = domain.Actor{ID: "cand-1", Role: domain.RoleCandidate}
)

type fixture struct {
	db    *gorm.DB
	leads *repo.LeadRepo
	calls *repo.CallLogRepo
	users *repo.UserRepo
	svc   *LeadService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.OpenDB(t)
	f := &fixture{
		db:    db,
		leads: repo.NewLeadRepo(db),
		calls: repo.NewCallLogRepo(db),
		users: repo.NewUserRepo(db),
	}
	f.svc = NewLeadService(f.leads, f.calls, f.users, LeadConfig{}, nil)
	return f
}

func (f *fixture) seedLead(t *testing.T, agentID, phone string, status domain.LeadStatus) *domain.Lead {
	t.Helper()
	l := &domain.Lead{
		ID:      utils.NewID(),
		Name:    "Lead " + phone,
		Phone:   phone,
		Source:  domain.LeadSourceManual,
		Status:  status,
		AgentID: agentID,
	}
	require.NoError(t, f.leads.Create(context.Background(), l))
	return l
}

func (f *fixture) tombstone(t *testing.T, id string) {
	t.Helper()
	ok, err := f.leads.SoftDelete(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
}

func (f *fixture) reload(t *testing.T, id string) *domain.Lead {
	t.Helper()
	l, err := f.leads.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

func requireKind(t *testing.T, err error, k domain.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, k, domain.KindOf(err), "got %v", err)
}
