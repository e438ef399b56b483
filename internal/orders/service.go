package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/simp-lee/order360/internal/cache"
	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/metrics"
)

// Backend endpoints, relative to the configured base URL.
const (
	EndpointOrders           = "orders"
	EndpointProcessDiagram   = "orders/{id}/process/diagram"
	EndpointProcessVariables = "orders/{id}/process/variables"
)

// Backend is the part of the backend client the order service needs.
type Backend interface {
	Get(ctx context.Context, endpoint, id string, params url.Values, out any) error
	GetRaw(ctx context.Context, endpoint, id string, params url.Values) ([]byte, error)
}

// Options tunes the list query cache. A nil Cache or non-positive
// StaleTime disables caching.
type Options struct {
	Cache     cache.Store
	StaleTime time.Duration
}

type service struct {
	backend Backend
	cache   cache.Store
	stale   time.Duration
	group   singleflight.Group
}

// NewService creates a new OrderService.
func NewService(backend Backend, opts Options) domain.OrderService {
	return &service{backend: backend, cache: opts.Cache, stale: opts.StaleTime}
}

// ListOrders returns one page of summarized orders for state. Identical
// concurrent queries share one backend call, and results are cached for the
// stale time. The shared call outlives a caller that gives up, so its result
// still warms the cache.
func (s *service) ListOrders(ctx context.Context, state domain.ListState) (*domain.QueryResult, error) {
	state = NormalizeState(state)
	key := "orders:" + Canonical(state)

	if res, ok := s.cached(ctx, key); ok {
		return res, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), key, state)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*domain.QueryResult), nil
	}
}

func (s *service) fetch(ctx context.Context, key string, state domain.ListState) (*domain.QueryResult, error) {
	var page domain.OrderPage
	if err := s.backend.Get(ctx, EndpointOrders, "", BackendParams(state), &page); err != nil {
		slog.WarnContext(ctx, "list orders failed", slog.String("query", key), slog.Any("error", err))
		return nil, err
	}

	res := &domain.QueryResult{Orders: SummarizeAll(page.Orders), TotalCount: max(page.TotalCount, 0)}
	if s.cache != nil && s.stale > 0 {
		if b, err := json.Marshal(res); err == nil {
			if err := s.cache.Set(ctx, key, b, s.stale); err != nil {
				slog.WarnContext(ctx, "order cache write failed", slog.Any("error", err))
			}
		}
	}
	return res, nil
}

func (s *service) cached(ctx context.Context, key string) (*domain.QueryResult, bool) {
	if s.cache == nil || s.stale <= 0 {
		return nil, false
	}
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.QueryCacheTotal.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "order cache read failed", slog.Any("error", err))
		return nil, false
	}
	if !ok {
		metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	var res domain.QueryResult
	if err := json.Unmarshal(b, &res); err != nil {
		metrics.QueryCacheTotal.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
	return &res, true
}

// GetOrder fetches a single order by id.
func (s *service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewAppError(domain.CodeValidation, "order id is required", nil)
	}
	var o domain.Order
	if err := s.backend.Get(ctx, EndpointOrders, id, nil, &o); err != nil {
		return nil, err
	}
	if o.ID == "" {
		o.ID = id
	}
	return &o, nil
}

// GetProcess loads the order, its BPMN diagram and its process variables in
// parallel and marks the diagram nodes the order has passed through.
func (s *service) GetProcess(ctx context.Context, id string) (*domain.ProcessView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewAppError(domain.CodeValidation, "order id is required", nil)
	}

	var (
		order   *domain.Order
		diagram []byte
		vars    struct {
			Items []rawVariable `json:"items"`
		}
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		order, err = s.GetOrder(gCtx, id)
		return err
	})

	g.Go(func() error {
		var err error
		diagram, err = s.backend.GetRaw(gCtx, EndpointProcessDiagram, id, nil)
		return err
	})

	g.Go(func() error {
		return s.backend.Get(gCtx, EndpointProcessVariables, id, nil, &vars)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	nodes, err := ParseFlowNodes(diagram)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeUpstream, "invalid process diagram", err)
	}

	variables := make([]domain.ProcessVariable, 0, len(vars.Items))
	for _, v := range vars.Items {
		variables = append(variables, domain.ProcessVariable{
			Key:   v.Key,
			Name:  v.Name,
			Value: FormatVariableValue(v.text()),
		})
	}

	return &domain.ProcessView{
		Order:     order,
		XML:       string(diagram),
		Nodes:     Highlight(nodes, order),
		Variables: variables,
	}, nil
}

// rawVariable accepts variable values of any JSON type.
type rawVariable struct {
	Key   string          `json:"key"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// text returns string values decoded and any other value as raw JSON.
func (v rawVariable) text() string {
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	if string(v.Value) == "null" {
		return ""
	}
	return string(v.Value)
}
