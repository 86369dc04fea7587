package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobportal-crm/internal/domain"
)

type LeadRepo struct{ db *gorm.DB }

func NewLeadRepo(db *gorm.DB) *LeadRepo { return &LeadRepo{db: db} }

func (r *LeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// InsertBatch writes leads in chunks with ON CONFLICT DO NOTHING, so a
// duplicate phone only drops its own row. The returned count is the number of
// rows actually written, which may be short of len(leads) even when err is
// nil.
func (r *LeadRepo) InsertBatch(ctx context.Context, leads []domain.Lead) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&leads, 200)
	return res.RowsAffected, res.Error
}

// FindByID includes soft-deleted leads.
func (r *LeadRepo) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	var l domain.Lead
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepo) scoped(ctx context.Context, f domain.LeadFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&domain.Lead{})
	if !f.IncludeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	if f.AgentID != "" {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

func (r *LeadRepo) List(ctx context.Context, f domain.LeadFilter, offset, limit int) ([]domain.Lead, int64, error) {
	var total int64
	if err := r.scoped(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var leads []domain.Lead
	err := r.scoped(ctx, f).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&leads).Error
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func (r *LeadRepo) CountByStatus(ctx context.Context, f domain.LeadFilter) (map[domain.LeadStatus]int64, error) {
	var rows []struct {
		Status domain.LeadStatus
		Count  int64
	}
	err := r.scoped(ctx, f).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.LeadStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *LeadRepo) CountByAgentAndStatus(ctx context.Context) ([]domain.AgentStatusCount, error) {
	var rows []domain.AgentStatusCount
	err := r.scoped(ctx, domain.LeadFilter{}).
		Select("agent_id, status, COUNT(*) AS count").
		Group("agent_id, status").
		Order("agent_id").
		Scan(&rows).Error
	return rows, err
}

// CreatedTimes returns creation times of live leads in [from, to].
func (r *LeadRepo) CreatedTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var ts []time.Time
	err := r.scoped(ctx, domain.LeadFilter{}).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at").
		Pluck("created_at", &ts).Error
	return ts, err
}

func (r *LeadRepo) live(ctx context.Context, id string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("id = ? AND is_deleted = ?", id, false)
}

// UpdateLive writes only the given columns, and only while the lead is not
// soft-deleted. It reports false when no live lead matched.
func (r *LeadRepo) UpdateLive(ctx context.Context, id string, fields map[string]any) (bool, error) {
	res := r.live(ctx, id).Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// PromoteStatus moves a live lead from one status to another. It reports
// false when the lead is gone or no longer in from.
func (r *LeadRepo) PromoteStatus(ctx context.Context, id string, from, to domain.LeadStatus) (bool, error) {
	res := r.live(ctx, id).Where("status = ?", from).Update("status", to)
	return res.RowsAffected > 0, res.Error
}

// SoftDelete tombstones a live lead. A second delete reports false.
func (r *LeadRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	res := r.live(ctx, id).Update("is_deleted", true)
	return res.RowsAffected > 0, res.Error
}
