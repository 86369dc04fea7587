package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"jobportal-crm/internal/core/cache"
	"jobportal-crm/internal/domain"
)

// EarningsPerCall is the fixed amount an agent earns for each logged call.
const EarningsPerCall int64 = 1

// DefaultReportWindow is the daily-volume range used when no start is given.
// The window counts the end day itself.
const DefaultReportWindow = 30 * 24 * time.Hour

const dayLayout = "2006-01-02"

type AgentSummary struct {
	AgentID    string                      `json:"agentId"`
	Name       string                      `json:"name,omitempty"`
	Email      string                      `json:"email,omitempty"`
	Phone      string                      `json:"phone,omitempty"`
	TotalLeads int64                       `json:"totalLeads"`
	ByStatus   map[domain.LeadStatus]int64 `json:"byStatus"`
	Calls      int64                       `json:"calls"`
	Earnings   int64                       `json:"earnings"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DailyVolume struct {
	Start string     `json:"start"`
	End   string     `json:"end"`
	Days  []DayCount `json:"days"`
}

// ReportService derives read-only aggregates from the lead and call stores.
// Results go through Redis when a cache is configured.
type ReportService struct {
	leads domain.LeadRepository
	calls domain.CallLogRepository
	users domain.UserRepository
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewReportService(leads domain.LeadRepository, calls domain.CallLogRepository, users domain.UserRepository, c *cache.Cache, ttl time.Duration, log *zap.Logger) *ReportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportService{leads: leads, calls: calls, users: users, cache: c, ttl: ttl, log: log, now: time.Now}
}

func cached[T any](s *ReportService, ctx context.Context, key string, load func(ctx context.Context) (*T, error)) (*T, error) {
	if s.cache == nil || s.ttl <= 0 {
		return load(ctx)
	}
	v, err := cache.GetOrLoadJSON(s.cache, ctx, key, s.ttl, load)
	var de *domain.Error
	if err != nil && !errors.As(err, &de) {
		// redis trouble should not take reports down
		s.log.Warn("report cache failed, loading directly", zap.String("key", key), zap.Error(err))
		return load(ctx)
	}
	return v, err
}

func emptyByStatus() map[domain.LeadStatus]int64 {
	m := make(map[domain.LeadStatus]int64, len(domain.LeadStatuses))
	for _, st := range domain.LeadStatuses {
		m[st] = 0
	}
	return m
}

// MySummary is the calling agent's own report.
func (s *ReportService) MySummary(ctx context.Context, actor domain.Actor) (*AgentSummary, error) {
	if !actor.IsAgent() {
		return nil, domain.Forbidden("only agents have a personal report")
	}
	return cached(s, ctx, "report:agent:"+actor.ID, func(ctx context.Context) (*AgentSummary, error) {
		counts, err := s.leads.CountByStatus(ctx, domain.LeadFilter{AgentID: actor.ID})
		if err != nil {
			return nil, domain.Internal("count leads", err)
		}
		calls, err := s.calls.CountByAgent(ctx, actor.ID)
		if err != nil {
			return nil, domain.Internal("count calls", err)
		}
		out := &AgentSummary{AgentID: actor.ID, ByStatus: emptyByStatus(), Calls: calls, Earnings: calls * EarningsPerCall}
		for st, n := range counts {
			out.ByStatus[st] = n
			out.TotalLeads += n
		}
		return out, nil
	})
}

type agentSummaries struct {
	Agents []AgentSummary `json:"agents"`
}

// AgentSummaries reports every agent that owns live leads or has logged
// calls, ordered by agent id. Admin only.
func (s *ReportService) AgentSummaries(ctx context.Context, actor domain.Actor) ([]AgentSummary, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbidden("admin only")
	}
	res, err := cached(s, ctx, "report:agents", func(ctx context.Context) (*agentSummaries, error) {
		buckets, err := s.leads.CountByAgentAndStatus(ctx)
		if err != nil {
			return nil, domain.Internal("count leads", err)
		}
		calls, err := s.calls.CountGroupedByAgent(ctx)
		if err != nil {
			return nil, domain.Internal("count calls", err)
		}

		byAgent := map[string]*AgentSummary{}
		get := func(id string) *AgentSummary {
			a, ok := byAgent[id]
			if !ok {
				a = &AgentSummary{AgentID: id, ByStatus: emptyByStatus()}
				byAgent[id] = a
			}
			return a
		}
		for _, b := range buckets {
			a := get(b.AgentID)
			a.ByStatus[b.Status] += b.Count
			a.TotalLeads += b.Count
		}
		for id, n := range calls {
			a := get(id)
			a.Calls = n
			a.Earnings = n * EarningsPerCall
		}

		ids := make([]string, 0, len(byAgent))
		for id := range byAgent {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		users, err := s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, domain.Internal("load agents", err)
		}
		for i := range users {
			if a, ok := byAgent[users[i].ID]; ok {
				a.Name = users[i].Name
				a.Email = users[i].EmailValue()
				a.Phone = users[i].Phone
			}
		}

		out := &agentSummaries{Agents: make([]AgentSummary, 0, len(ids))}
		for _, id := range ids {
			out.Agents = append(out.Agents, *byAgent[id])
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return res.Agents, nil
}

// DailyLeadVolume counts live leads per UTC calendar day in [start, end].
// Empty start and end default to the trailing 30 days; days without leads are
// omitted. Admin only.
func (s *ReportService) DailyLeadVolume(ctx context.Context, actor domain.Actor, start, end string) (*DailyVolume, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbidden("admin only")
	}
	from, to, err := s.reportRange(start, end)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("report:daily:%s:%s", from.Format(dayLayout), to.Format(dayLayout))
	return cached(s, ctx, key, func(ctx context.Context) (*DailyVolume, error) {
		ts, err := s.leads.CreatedTimes(ctx, from, to)
		if err != nil {
			return nil, domain.Internal("load lead times", err)
		}
		out := &DailyVolume{Start: from.Format(dayLayout), End: to.Format(dayLayout), Days: []DayCount{}}
		for _, t := range ts {
			d := t.UTC().Format(dayLayout)
			if n := len(out.Days); n > 0 && out.Days[n-1].Date == d {
				out.Days[n-1].Count++
				continue
			}
			out.Days = append(out.Days, DayCount{Date: d, Count: 1})
		}
		return out, nil
	})
}

// reportRange turns optional YYYY-MM-DD bounds into an inclusive UTC range
// running from the start of the first day to the end of the last.
func (s *ReportService) reportRange(start, end string) (time.Time, time.Time, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	last := today
	if end != "" {
		t, err := time.Parse(dayLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, domain.BadInput("end must be YYYY-MM-DD")
		}
		last = t
	}
	first := last.Add(-DefaultReportWindow + 24*time.Hour)
	if start != "" {
		t, err := time.Parse(dayLayout, start)
		if err != nil {
			return time.Time{}, time.Time{}, domain.BadInput("start must be YYYY-MM-DD")
		}
		first = t
	}
	if first.After(last) {
		return time.Time{}, time.Time{}, domain.BadInput("start must not be after end")
	}
	return first, last.Add(24*time.Hour - time.Nanosecond), nil
}
