package domain

import (
	"context"
	"time"
)

// CallLog records one phone contact with a lead. AgentID always equals the
// lead's owning agent. Records are never updated.
type CallLog struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	LeadID          string    `gorm:"size:36;not null;index" json:"lead"`
	AgentID         string    `gorm:"size:36;not null;index" json:"agent"`
	DurationSeconds int       `gorm:"not null" json:"durationSeconds"`
	Notes           string    `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (CallLog) TableName() string { return "call_logs" }

type CallLogRepository interface {
	Create(ctx context.Context, c *CallLog) error
	ListByLead(ctx context.Context, leadID string) ([]CallLog, error)
	CountByAgent(ctx context.Context, agentID string) (int64, error)
	CountGroupedByAgent(ctx context.Context) (map[string]int64, error)
}
