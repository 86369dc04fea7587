package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-crm/internal/core/cache"
	"jobportal-crm/internal/domain"
	"jobportal-crm/pkg/utils"
)

func newReports(f *fixture, c *cache.Cache) *ReportService {
	return NewReportService(f.leads, f.calls, f.users, c, time.Minute, nil)
}

func (f *fixture) logCalls(t *testing.T, agentID, leadID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, f.calls.Create(context.Background(), &domain.CallLog{ID: utils.NewID(), LeadID: leadID, AgentID: agentID}))
	}
}

func TestMySummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusShortlisted)
	f.seedLead(t, "agent-a", "9000000002", domain.LeadStatusConverted)
	gone := f.seedLead(t, "agent-a", "9000000003", domain.LeadStatusConverted)
	f.tombstone(t, gone.ID)
	f.seedLead(t, "agent-b", "9000000004", domain.LeadStatusNew)
	f.logCalls(t, "agent-a", l.ID, 3)

	sum, err := newReports(f, nil).MySummary(ctx, agentA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.TotalLeads)
	assert.Equal(t, int64(1), sum.ByStatus[domain.LeadStatusShortlisted])
	assert.Equal(t, int64(1), sum.ByStatus[domain.LeadStatusConverted])
	assert.Len(t, sum.ByStatus, len(domain.LeadStatuses))
	assert.Equal(t, int64(3), sum.Calls)
	assert.Equal(t, 3*EarningsPerCall, sum.Earnings)

	_, err = newReports(f, nil).MySummary(ctx, admin)
	requireKind(t, err, domain.KindForbidden)
}

func TestAgentSummaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := "a@example.com"
	require.NoError(t, f.users.Create(ctx, &domain.User{ID: "agent-a", Email: &email, Name: "Agent A", Phone: "9111111111", Role: domain.RoleAgent}))
	la := f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)
	f.seedLead(t, "agent-a", "9000000002", domain.LeadStatusInterested)
	lb := f.seedLead(t, "agent-b", "9000000003", domain.LeadStatusNew)
	f.tombstone(t, lb.ID)
	f.logCalls(t, "agent-a", la.ID, 2)
	f.logCalls(t, "agent-b", lb.ID, 1)

	got, err := newReports(f, nil).AgentSummaries(ctx, admin)
	require.NoError(t, err)
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, "agent-a", a.AgentID)
	assert.Equal(t, "Agent A", a.Name)
	assert.Equal(t, "a@example.com", a.Email)
	assert.Equal(t, int64(2), a.TotalLeads)
	assert.Equal(t, int64(1), a.ByStatus[domain.LeadStatusInterested])
	assert.Equal(t, int64(2), a.Earnings)

	b := got[1]
	assert.Equal(t, "agent-b", b.AgentID)
	assert.Zero(t, b.TotalLeads)
	assert.Equal(t, int64(1), b.Calls)

	_, err = newReports(f, nil).AgentSummaries(ctx, agentA)
	requireKind(t, err, domain.KindForbidden)
}

func (f *fixture) leadAt(t *testing.T, phone string, at time.Time) {
	t.Helper()
	l := f.seedLead(t, "agent-a", phone, domain.LeadStatusNew)
	require.NoError(t, f.db.Model(&domain.Lead{}).Where("id = ?", l.ID).Update("created_at", at.UTC()).Error)
}

func TestDailyLeadVolume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.leadAt(t, "9000000001", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	f.leadAt(t, "9000000002", time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC))
	f.leadAt(t, "9000000003", time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC))
	f.leadAt(t, "9000000004", time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	f.leadAt(t, "9000000005", time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC))

	r := newReports(f, nil)
	r.now = func() time.Time { return time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC) }

	got, err := r.DailyLeadVolume(ctx, admin, "2026-03-01", "2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", got.Start)
	assert.Equal(t, "2026-03-05", got.End)
	assert.Equal(t, []DayCount{{Date: "2026-03-01", Count: 2}, {Date: "2026-03-03", Count: 1}}, got.Days)

	got, err = r.DailyLeadVolume(ctx, admin, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-04", got.Start)
	assert.Equal(t, "2026-03-05", got.End)
	assert.Equal(t, []DayCount{{Date: "2026-03-01", Count: 2}, {Date: "2026-03-03", Count: 1}}, got.Days)

	got, err = r.DailyLeadVolume(ctx, admin, "2025-12-01", "2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, []DayCount{{Date: "2026-01-01", Count: 1}}, got.Days)
}

func TestDailyLeadVolumeRejects(t *testing.T) {
	r := newReports(newFixture(t), nil)
	ctx := context.Background()

	_, err := r.DailyLeadVolume(ctx, admin, "2026-03-05", "2026-03-01")
	requireKind(t, err, domain.KindBadInput)
	_, err = r.DailyLeadVolume(ctx, admin, "03/01/2026", "")
	requireKind(t, err, domain.KindBadInput)
	_, err = r.DailyLeadVolume(ctx, agentA, "", "")
	requireKind(t, err, domain.KindForbidden)
}

func TestReportsAreCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	r := newReports(f, c)

	f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)
	first, err := r.MySummary(ctx, agentA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TotalLeads)

	f.seedLead(t, "agent-a", "9000000002", domain.LeadStatusNew)
	second, err := r.MySummary(ctx, agentA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.TotalLeads)

	mr.FastForward(2 * time.Minute)
	third, err := r.MySummary(ctx, agentA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), third.TotalLeads)
}

func TestReportsSurviveCacheOutage(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { _ = c.Close() })
	mr.Close()

	f.seedLead(t, "agent-a", "9000000001", domain.LeadStatusNew)
	sum, err := newReports(f, c).MySummary(context.Background(), agentA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.TotalLeads)
}
