package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/repo/repotest"
	"jobportal-crm/pkg/utils"
)

func newLead(agent, name, phone string, status domain.LeadStatus) domain.Lead {
	return domain.Lead{
		ID:      utils.NewID(),
		Name:    name,
		Phone:   phone,
		Source:  domain.LeadSourceManual,
		Status:  status,
		AgentID: agent,
	}
}

func TestLeadRepoInsertBatchSkipsDuplicatePhones(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepo(repotest.OpenDB(t))

	existing := newLead("a1", "Old", "9000000001", domain.LeadStatusNew)
	require.NoError(t, r.Create(ctx, &existing))

	batch := []domain.Lead{
		newLead("a1", "Jane", "9000000002", domain.LeadStatusNew),
		newLead("a1", "Dup", "9000000001", domain.LeadStatusNew),
		newLead("a1", "Bob", "9000000003", domain.LeadStatusNew),
	}
	n, err := r.InsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, total, err := r.List(ctx, domain.LeadFilter{AgentID: "a1"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestLeadRepoInsertBatchEmpty(t *testing.T) {
	n, err := NewLeadRepo(repotest.OpenDB(t)).InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLeadRepoCreateDuplicatePhoneIsTranslated(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepo(repotest.OpenDB(t))
	a := newLead("a1", "A", "9000000001", domain.LeadStatusNew)
	b := newLead("a2", "B", "9000000001", domain.LeadStatusNew)
	require.NoError(t, r.Create(ctx, &a))

	err := r.Create(ctx, &b)
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))
}

func TestLeadRepoListScopesAndExcludesDeleted(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepo(repotest.OpenDB(t))

	l1 := newLead("a1", "One", "9000000001", domain.LeadStatusNew)
	l2 := newLead("a1", "Two", "9000000002", domain.LeadStatusContacted)
	l3 := newLead("a2", "Three", "9000000003", domain.LeadStatusNew)
	gone := newLead("a1", "Gone", "9000000004", domain.LeadStatusNew)
	gone.IsDeleted = true
	for _, l := range []*domain.Lead{&l1, &l2, &l3, &gone} {
		require.NoError(t, r.Create(ctx, l))
	}

	leads, total, err := r.List(ctx, domain.LeadFilter{AgentID: "a1"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, leads, 2)

	leads, total, err = r.List(ctx, domain.LeadFilter{Status: domain.LeadStatusNew}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, l := range leads {
		assert.Equal(t, domain.LeadStatusNew, l.Status)
		assert.False(t, l.IsDeleted)
	}

	_, total, err = r.List(ctx, domain.LeadFilter{AgentID: "a1", IncludeDeleted: true}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	got, err := r.FindByID(ctx, gone.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsDeleted)
}

func TestLeadRepoListPagination(t *testing.T) {
	ctx := context.Background()
	db := repotest.OpenDB(t)
	r := NewLeadRepo(db)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, phone := range []string{"9000000001", "9000000002", "9000000003"} {
		l := newLead("a1", phone, phone, domain.LeadStatusNew)
		l.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, r.Create(ctx, &l))
	}

	page, total, err := r.List(ctx, domain.LeadFilter{}, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "9000000003", page[0].Phone)
	assert.Equal(t, "9000000002", page[1].Phone)

	page, _, err = r.List(ctx, domain.LeadFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "9000000001", page[0].Phone)
}

func TestLeadRepoFindByIDMissing(t *testing.T) {
	got, err := NewLeadRepo(repotest.OpenDB(t)).FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLeadRepoCounts(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepo(repotest.OpenDB(t))
	leads := []domain.Lead{
		newLead("a1", "1", "9000000001", domain.LeadStatusNew),
		newLead("a1", "2", "9000000002", domain.LeadStatusNew),
		newLead("a1", "3", "9000000003", domain.LeadStatusShortlisted),
		newLead("a2", "4", "9000000004", domain.LeadStatusConverted),
	}
	deleted := newLead("a2", "5", "9000000005", domain.LeadStatusConverted)
	deleted.IsDeleted = true
	leads = append(leads, deleted)
	for i := range leads {
		require.NoError(t, r.Create(ctx, &leads[i]))
	}

	byStatus, err := r.CountByStatus(ctx, domain.LeadFilter{AgentID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, map[domain.LeadStatus]int64{
		domain.LeadStatusNew:         2,
		domain.LeadStatusShortlisted: 1,
	}, byStatus)

	rows, err := r.CountByAgentAndStatus(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.AgentStatusCount{
		{AgentID: "a1", Status: domain.LeadStatusNew, Count: 2},
		{AgentID: "a1", Status: domain.LeadStatusShortlisted, Count: 1},
		{AgentID: "a2", Status: domain.LeadStatusConverted, Count: 1},
	}, rows)
}

func TestLeadRepoCreatedTimes(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepo(repotest.OpenDB(t))
	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	for i, d := range []int{1, 5, 5, 20} {
		l := newLead("a1", "n", fmt.Sprintf("900000000%d", i), domain.LeadStatusNew)
		l.CreatedAt = day(d)
		require.NoError(t, r.Create(ctx, &l))
	}

	ts, err := r.CreatedTimes(ctx, day(2), day(10))
	require.NoError(t, err)
	require.Len(t, ts, 2)
	for _, tm := range ts {
		assert.Equal(t, 5, tm.UTC().Day())
	}
}

func TestLeadRepoUpdateLiveSkipsDeleted(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepo(repotest.OpenDB(t))
	l := newLead("a1", "n", "9000000001", domain.LeadStatusNew)
	require.NoError(t, r.Create(ctx, &l))

	ok, err := r.UpdateLive(ctx, l.ID, map[string]any{"status": domain.LeadStatusInterested})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.SoftDelete(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.SoftDelete(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.UpdateLive(ctx, l.ID, map[string]any{"name": "late edit"})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, "n", got.Name)
	assert.Equal(t, domain.LeadStatusInterested, got.Status)
	assert.Equal(t, "a1", got.AgentID)
}

func TestLeadRepoPromoteStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepo(repotest.OpenDB(t))
	l := newLead("a1", "n", "9000000001", domain.LeadStatusNew)
	require.NoError(t, r.Create(ctx, &l))

	ok, err := r.PromoteStatus(ctx, l.ID, domain.LeadStatusNew, domain.LeadStatusContacted)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.PromoteStatus(ctx, l.ID, domain.LeadStatusNew, domain.LeadStatusContacted)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusContacted, got.Status)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKey(errors.New("ERROR: duplicate key value violates unique constraint")))
	assert.True(t, IsDuplicateKey(errors.New("UNIQUE constraint failed: leads.phone")))
	assert.False(t, IsDuplicateKey(errors.New("connection refused")))
	assert.False(t, IsDuplicateKey(nil))
}
