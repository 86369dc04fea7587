package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/repo"
	"jobportal-crm/pkg/utils"
)

// Mapping targets a spreadsheet column can be assigned to.
const (
	FieldName     = "name"
	FieldPhone    = "phone"
	FieldLocation = "location"
	FieldStatus   = "status"
	FieldIgnore   = "ignore"
)

// MaxReportedImportErrors caps the per-row errors returned from one import.
const MaxReportedImportErrors = 10

// ImportResult summarises one bulk import. TotalProcessed is the number of
// input rows; SkippedCount is those that failed validation.
type ImportResult struct {
	InsertedCount  int64    `json:"insertedCount"`
	TotalProcessed int      `json:"totalProcessed"`
	SkippedCount   int      `json:"skippedCount"`
	DuplicateCount int64    `json:"duplicateCount"`
	Errors         []string `json:"errors"`
}

func validTarget(t string) bool {
	switch t {
	case FieldName, FieldPhone, FieldLocation, FieldStatus, FieldIgnore:
		return true
	}
	return false
}

// columnsByTarget inverts a column->field mapping. A field may be fed by at
// most one column.
func columnsByTarget(mapping map[string]string) (map[string]string, error) {
	if len(mapping) == 0 {
		return nil, domain.BadInput("column mapping is required")
	}
	cols := make([]string, 0, len(mapping))
	for c := range mapping {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	out := make(map[string]string, 4)
	for _, col := range cols {
		t := mapping[col]
		if !validTarget(t) {
			return nil, domain.BadInput(fmt.Sprintf("column %q maps to unknown field %q", col, t))
		}
		if t == FieldIgnore {
			continue
		}
		if prev, dup := out[t]; dup {
			return nil, domain.BadInput(fmt.Sprintf("columns %q and %q both map to %s", prev, col, t))
		}
		out[t] = col
	}
	return out, nil
}

// ImportLeads validates rows through mapping and bulk-inserts the valid ones
// for the calling agent. Invalid rows are reported and skipped; rows whose
// phone already exists are dropped by the store and counted as duplicates.
// When every valid row turns out to be a duplicate the import fails with
// DuplicateKey, carrying the result as details.
func (s *LeadService) ImportLeads(ctx context.Context, actor domain.Actor, rows []map[string]string, mapping map[string]string) (*ImportResult, error) {
	if !actor.IsAgent() {
		return nil, domain.Forbidden("only agents can import leads")
	}
	if len(rows) == 0 {
		return nil, domain.BadInput("No data to import")
	}
	if len(rows) > s.cfg.MaxImportRows {
		return nil, domain.BadInput(fmt.Sprintf("too many rows: %d (max %d)", len(rows), s.cfg.MaxImportRows))
	}
	cols, err := columnsByTarget(mapping)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{TotalProcessed: len(rows), Errors: []string{}}
	report := func(msg string) {
		if len(res.Errors) < MaxReportedImportErrors {
			res.Errors = append(res.Errors, msg)
		}
	}
	field := func(row map[string]string, target string) string {
		col, ok := cols[target]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	accepted := make([]domain.Lead, 0, len(rows))
	for i, row := range rows {
		n := i + 1
		name, phone := field(row, FieldName), field(row, FieldPhone)
		if name == "" || phone == "" {
			report(fmt.Sprintf("Row %d: Missing required fields (name or phone)", n))
			continue
		}
		if !validPhone(phone) {
			report(fmt.Sprintf("Row %d: Invalid phone number (%s)", n, phone))
			continue
		}
		status := domain.LeadStatusNew
		if v := field(row, FieldStatus); v != "" {
			status = domain.LeadStatus(v)
			if !status.Valid() {
				report(fmt.Sprintf("Row %d: Invalid status (%s)", n, v))
				continue
			}
		}
		accepted = append(accepted, domain.Lead{
			ID:       utils.NewID(),
			Name:     name,
			Phone:    phone,
			Location: field(row, FieldLocation),
			Source:   domain.LeadSourceCSV,
			Status:   status,
			AgentID:  actor.ID,
		})
	}
	res.SkippedCount = len(rows) - len(accepted)
	leadImportRows.WithLabelValues("invalid").Add(float64(res.SkippedCount))

	if len(accepted) == 0 {
		s.log.Info("lead import had no valid rows",
			zap.String("agent_id", actor.ID),
			zap.Int("rows", len(rows)),
		)
		return res, nil
	}

	inserted, err := s.leads.InsertBatch(ctx, accepted)
	if err != nil {
		s.log.Error("lead import write failed", zap.String("agent_id", actor.ID), zap.Error(err))
		if repo.IsDuplicateKey(err) {
			return nil, domain.DuplicateKey("Some leads already exist (duplicate phone numbers)", err).WithDetails(res)
		}
		return nil, domain.BulkWriteFailure("Failed to import leads", err).WithDetails(res)
	}
	res.InsertedCount = inserted
	res.DuplicateCount = int64(len(accepted)) - inserted
	leadImportRows.WithLabelValues("inserted").Add(float64(inserted))
	leadImportRows.WithLabelValues("duplicate").Add(float64(res.DuplicateCount))

	s.log.Info("lead import finished",
		zap.String("agent_id", actor.ID),
		zap.Int("rows", len(rows)),
		zap.Int64("inserted", res.InsertedCount),
		zap.Int("skipped", res.SkippedCount),
		zap.Int64("duplicates", res.DuplicateCount),
	)
	if inserted == 0 {
		return nil, domain.DuplicateKey("Some leads already exist (duplicate phone numbers)", nil).WithDetails(res)
	}
	return res, nil
}
