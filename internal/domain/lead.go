package domain

import (
	"context"
	"time"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "New"
	LeadStatusContacted   LeadStatus = "Contacted"
	LeadStatusInterested  LeadStatus = "Interested"
	LeadStatusShortlisted LeadStatus = "Shortlisted"
	LeadStatusConverted   LeadStatus = "Converted"
	LeadStatusDiscarded   LeadStatus = "Discarded"
)

// LeadStatuses lists every status in lifecycle order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusInterested,
	LeadStatusShortlisted,
	LeadStatusConverted,
	LeadStatusDiscarded,
}

// Valid reports whether s is one of the enumerated statuses. Matching is exact.
func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type LeadSource string

const (
	LeadSourceCSV      LeadSource = "CSV"
	LeadSourceManual   LeadSource = "Manual"
	LeadSourceCampaign LeadSource = "Campaign"
	LeadSourceAPI      LeadSource = "API"
)

func (s LeadSource) Valid() bool {
	switch s {
	case LeadSourceCSV, LeadSourceManual, LeadSourceCampaign, LeadSourceAPI:
		return true
	}
	return false
}

// MinPhoneLength is the shortest trimmed phone string accepted for a lead.
const MinPhoneLength = 10

// Lead is a prospective candidate owned by exactly one agent. AgentID is set
// at creation and never changes; deletion only flips IsDeleted.
type Lead struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Name      string     `gorm:"size:128;not null" json:"name"`
	Phone     string     `gorm:"uniqueIndex;size:32;not null" json:"phone"`
	Location  string     `gorm:"size:128" json:"location"`
	Email     string     `gorm:"size:191" json:"email"`
	Notes     string     `gorm:"type:text" json:"notes"`
	Source    LeadSource `gorm:"size:16;not null" json:"source"`
	Status    LeadStatus `gorm:"size:16;not null;index" json:"status"`
	AgentID   string     `gorm:"size:36;not null;index" json:"agent"`
	IsDeleted bool       `gorm:"not null;index" json:"isDeleted"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Lead) TableName() string { return "leads" }

// LeadFilter is a scoped query over leads. An empty AgentID means all agents.
type LeadFilter struct {
	AgentID        string
	Status         LeadStatus
	IncludeDeleted bool
}

// AgentStatusCount is one (agent, status) bucket of the lead population.
type AgentStatusCount struct {
	AgentID string
	Status  LeadStatus
	Count   int64
}

type LeadRepository interface {
	Create(ctx context.Context, l *Lead) error
	// InsertBatch inserts leads with unordered semantics: rows rejected by a
	// uniqueness constraint are skipped without failing the rest.
	InsertBatch(ctx context.Context, leads []Lead) (int64, error)
	FindByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, f LeadFilter, offset, limit int) ([]Lead, int64, error)
	CountByStatus(ctx context.Context, f LeadFilter) (map[LeadStatus]int64, error)
	CountByAgentAndStatus(ctx context.Context) ([]AgentStatusCount, error)
	CreatedTimes(ctx context.Context, from, to time.Time) ([]time.Time, error)
	// UpdateLive, PromoteStatus and SoftDelete are conditional on the lead
	// being live and report false when nothing matched.
	UpdateLive(ctx context.Context, id string, fields map[string]any) (bool, error)
	PromoteStatus(ctx context.Context, id string, from, to LeadStatus) (bool, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
}
