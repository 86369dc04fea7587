package repo

import (
	"context"

	"gorm.io/gorm"

	"jobportal-crm/internal/domain"
)

type CallLogRepo struct{ db *gorm.DB }

func NewCallLogRepo(db *gorm.DB) *CallLogRepo { return &CallLogRepo{db: db} }

func (r *CallLogRepo) Create(ctx context.Context, c *domain.CallLog) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CallLogRepo) ListByLead(ctx context.Context, leadID string) ([]domain.CallLog, error) {
	var calls []domain.CallLog
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").Order("id DESC").
		Find(&calls).Error
	return calls, err
}

func (r *CallLogRepo) CountByAgent(ctx context.Context, agentID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.CallLog{}).Where("agent_id = ?", agentID).Count(&n).Error
	return n, err
}

func (r *CallLogRepo) CountGroupedByAgent(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		AgentID string
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&domain.CallLog{}).
		Select("agent_id, COUNT(*) AS count").
		Group("agent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.AgentID] = row.Count
	}
	return out, nil
}
