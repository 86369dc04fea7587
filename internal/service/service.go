package service

import (
	"go.uber.org/zap"

	"jobportal-crm/internal/domain"
)

type LeadConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	MaxImportRows   int
}

func (c LeadConfig) withDefaults() LeadConfig {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}
	if c.MaxImportRows <= 0 {
		c.MaxImportRows = 5000
	}
	return c
}

// LeadService owns the lead lifecycle: CRUD, status transitions, call
// logging and bulk import.
type LeadService struct {
	leads domain.LeadRepository
	calls domain.CallLogRepository
	users domain.UserRepository
	cfg   LeadConfig
	log   *zap.Logger
}

func NewLeadService(leads domain.LeadRepository, calls domain.CallLogRepository, users domain.UserRepository, cfg LeadConfig, log *zap.Logger) *LeadService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeadService{leads: leads, calls: calls, users: users, cfg: cfg.withDefaults(), log: log}
}
