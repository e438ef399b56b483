package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/order360/internal/cache"
	"github.com/simp-lee/order360/internal/domain"
)

// Backend endpoints feeding the dashboard panels.
const (
	EndpointMetrics         = "orders/metrics"
	EndpointChannels        = "orders/distribution/channel"
	EndpointBusinessProcess = "orders/distribution/business-process"
	EndpointWeeklyTrends    = "orders/trends/weekly"
)

// Panel names reported in Overview.Failed.
const (
	PanelMetrics           = "metrics"
	PanelChannels          = "channels"
	PanelBusinessProcesses = "businessProcesses"
	PanelTrends            = "trends"
)

const overviewCacheKey = "dashboard:overview"

// Backend is the part of the backend client the dashboard needs.
type Backend interface {
	Get(ctx context.Context, endpoint, id string, params url.Values, out any) error
}

type dashboardService struct {
	backend Backend
	cache   cache.Store
	ttl     time.Duration
}

// NewDashboardService creates a new DashboardService. A nil store or a
// non-positive ttl disables caching of complete overviews.
func NewDashboardService(backend Backend, store cache.Store, ttl time.Duration) domain.DashboardService {
	return &dashboardService{backend: backend, cache: store, ttl: ttl}
}

// Overview loads the four dashboard panels concurrently. A failed panel is
// left empty and named in Failed; only when every panel fails is an error
// returned. When ctx ends while panels are loading, the remaining loads are
// abandoned and the context error is returned.
func (s *dashboardService) Overview(ctx context.Context) (*domain.Overview, error) {
	if o, ok := s.cached(ctx); ok {
		return o, nil
	}

	var (
		o       domain.Overview
		mu      sync.Mutex
		lastErr error
	)
	g, gctx := errgroup.WithContext(ctx)

	load := func(panel, endpoint string, out any) {
		g.Go(func() error {
			err := s.backend.Get(gctx, endpoint, "", nil, out)
			if err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.WarnContext(ctx, "dashboard panel unavailable",
				slog.String("panel", panel), slog.Any("error", err))
			mu.Lock()
			o.Failed = append(o.Failed, panel)
			lastErr = err
			mu.Unlock()
			return nil
		})
	}

	var channels, processes []domain.DistributionEntry
	load(PanelMetrics, EndpointMetrics, &o.Metrics)
	load(PanelChannels, EndpointChannels, &channels)
	load(PanelBusinessProcesses, EndpointBusinessProcess, &processes)
	load(PanelTrends, EndpointWeeklyTrends, &o.Trends)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(o.Failed) == 4 {
		return nil, lastErr
	}
	o.Channels = nonNil(channels)
	o.BusinessProcesses = nonNil(processes)
	sortPanels(o.Failed)

	if len(o.Failed) == 0 {
		s.store(ctx, &o)
	}
	return &o, nil
}

func (s *dashboardService) cached(ctx context.Context) (*domain.Overview, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return nil, false
	}
	b, ok, err := s.cache.Get(ctx, overviewCacheKey)
	if err != nil || !ok {
		return nil, false
	}
	var o domain.Overview
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, false
	}
	return &o, true
}

func (s *dashboardService) store(ctx context.Context, o *domain.Overview) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, overviewCacheKey, b, s.ttl); err != nil {
		slog.WarnContext(ctx, "dashboard cache write failed", slog.Any("error", err))
	}
}

func nonNil(e []domain.DistributionEntry) []domain.DistributionEntry {
	if e == nil {
		return []domain.DistributionEntry{}
	}
	return e
}

// sortPanels orders failed panel names as they appear on the page.
func sortPanels(failed []string) {
	rank := map[string]int{PanelMetrics: 0, PanelChannels: 1, PanelBusinessProcesses: 2, PanelTrends: 3}
	slices.SortFunc(failed, func(a, b string) int { return rank[a] - rank[b] })
}
