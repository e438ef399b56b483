package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/simp-lee/order360/internal/cache"
	"github.com/simp-lee/order360/internal/domain"
)

// fakeBackend serves canned responses keyed by endpoint and records calls.
type fakeBackend struct {
	mu     sync.Mutex
	calls  atomic.Int32
	params []url.Values

	getFn    func(ctx context.Context, endpoint, id string, params url.Values) (any, error)
	getRawFn func(ctx context.Context, endpoint, id string) ([]byte, error)
}

func (f *fakeBackend) Get(ctx context.Context, endpoint, id string, params url.Values, out any) error {
	f.calls.Add(1)
	f.mu.Lock()
	f.params = append(f.params, params)
	f.mu.Unlock()

	v, err := f.getFn(ctx, endpoint, id, params)
	if err != nil {
		return err
	}
	b, _ := json.Marshal(v)
	return json.Unmarshal(b, out)
}

func (f *fakeBackend) GetRaw(ctx context.Context, endpoint, id string, _ url.Values) ([]byte, error) {
	f.calls.Add(1)
	return f.getRawFn(ctx, endpoint, id)
}

func pageOf(total int64, ids ...string) domain.OrderPage {
	p := domain.OrderPage{TotalCount: total}
	for _, id := range ids {
		p.Orders = append(p.Orders, domain.Order{ID: id, State: "Completed"})
	}
	return p
}

func TestListOrders_MapsStateAndSummarizes(t *testing.T) {
	be := &fakeBackend{getFn: func(ctx context.Context, endpoint, id string, params url.Values) (any, error) {
		return pageOf(18, "A1", "A2"), nil
	}}
	svc := NewService(be, Options{})

	state := domain.ListState{Page: 2, PageSize: 10, Filters: domain.OrderFilters{Channel: "Online", State: "Completed"}}
	res, err := svc.ListOrders(context.Background(), state)
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}

	if res.TotalCount != 18 || len(res.Orders) != 2 || res.Orders[0].ID != "A1" || res.Orders[0].Badge != domain.BadgeCompleted {
		t.Errorf("result = %+v", res)
	}
	got := be.params[0]
	want := url.Values{"page": {"2"}, "pageSize": {"10"}, "channel": {"Online"}, "state": {"Completed"}}
	if got.Encode() != want.Encode() {
		t.Errorf("params = %q; want %q", got.Encode(), want.Encode())
	}
}

func TestListOrders_EmptyPage(t *testing.T) {
	be := &fakeBackend{getFn: func(context.Context, string, string, url.Values) (any, error) {
		return map[string]any{"orders": nil, "totalCount": 0}, nil
	}}
	res, err := NewService(be, Options{}).ListOrders(context.Background(), domain.DefaultListState())
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if res.Orders == nil || len(res.Orders) != 0 || res.TotalCount != 0 {
		t.Errorf("result = %#v", res)
	}
}

func TestListOrders_CachesWithinStaleTime(t *testing.T) {
	be := &fakeBackend{getFn: func(context.Context, string, string, url.Values) (any, error) {
		return pageOf(1, "A1"), nil
	}}
	svc := NewService(be, Options{Cache: cache.NewMemory(10), StaleTime: time.Minute})
	ctx := context.Background()

	for range 3 {
		if _, err := svc.ListOrders(ctx, domain.DefaultListState()); err != nil {
			t.Fatalf("ListOrders() error = %v", err)
		}
	}
	if be.calls.Load() != 1 {
		t.Errorf("backend calls = %d; want 1", be.calls.Load())
	}

	// Equivalent state, different spelling: same cache entry.
	equiv := domain.ListState{Page: 0, PageSize: 0, Filters: domain.OrderFilters{Channel: "all"}}
	if _, err := svc.ListOrders(ctx, equiv); err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if be.calls.Load() != 1 {
		t.Errorf("backend calls = %d; want 1 for an equivalent state", be.calls.Load())
	}

	if _, err := svc.ListOrders(ctx, domain.ListState{Page: 2, PageSize: 10}); err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if be.calls.Load() != 2 {
		t.Errorf("backend calls = %d; want 2 for a new state", be.calls.Load())
	}
}

func TestListOrders_ErrorsAreNotCached(t *testing.T) {
	fail := true
	be := &fakeBackend{getFn: func(context.Context, string, string, url.Values) (any, error) {
		if fail {
			return nil, domain.NewAppError(domain.CodeUpstream, "down", nil)
		}
		return pageOf(1, "A1"), nil
	}}
	svc := NewService(be, Options{Cache: cache.NewMemory(10), StaleTime: time.Minute})

	_, err := svc.ListOrders(context.Background(), domain.DefaultListState())
	if !domain.IsUpstream(err) {
		t.Fatalf("error = %v; want upstream", err)
	}

	fail = false
	res, err := svc.ListOrders(context.Background(), domain.DefaultListState())
	if err != nil || len(res.Orders) != 1 {
		t.Fatalf("ListOrders() after recovery = %+v, %v", res, err)
	}
}

func TestListOrders_CoalescesIdenticalQueries(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 10)
	be := &fakeBackend{getFn: func(context.Context, string, string, url.Values) (any, error) {
		started <- struct{}{}
		<-release
		return pageOf(1, "A1"), nil
	}}
	svc := NewService(be, Options{})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ListOrders(context.Background(), domain.DefaultListState()); err != nil {
				t.Errorf("ListOrders() error = %v", err)
			}
		}()
	}
	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if be.calls.Load() != 1 {
		t.Errorf("backend calls = %d; want 1", be.calls.Load())
	}
}

func TestListOrders_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	be := &fakeBackend{getFn: func(context.Context, string, string, url.Values) (any, error) {
		<-release
		return pageOf(0), nil
	}}
	svc := NewService(be, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.ListOrders(ctx, domain.DefaultListState()); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v; want context.Canceled", err)
	}
}

// A query that resolves after a newer one must not replace the newer result.
func TestListOrders_StaleResponseDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	be := &fakeBackend{getFn: func(ctx context.Context, endpoint, id string, params url.Values) (any, error) {
		if params.Get("page") == "1" {
			<-releaseA
			return pageOf(20, "A-old"), nil
		}
		return pageOf(20, "B-new"), nil
	}}
	svc := NewService(be, Options{})
	latest := NewLatest()

	var applied []string
	var mu sync.Mutex
	run := func(state domain.ListState, done chan<- struct{}) {
		defer close(done)
		ctx, tk := latest.Begin(context.Background(), "session", Canonical(state))
		res, err := svc.ListOrders(ctx, state)
		if !latest.Commit(tk) || err != nil {
			return
		}
		mu.Lock()
		applied = append(applied, res.Orders[0].ID)
		mu.Unlock()
	}

	doneA, doneB := make(chan struct{}), make(chan struct{})
	go run(domain.ListState{Page: 1, PageSize: 10}, doneA)
	time.Sleep(20 * time.Millisecond)
	go run(domain.ListState{Page: 2, PageSize: 10}, doneB)
	<-doneB
	close(releaseA)
	<-doneA

	if len(applied) != 1 || applied[0] != "B-new" {
		t.Fatalf("applied = %v; want only the newest result", applied)
	}
}

func TestGetOrder(t *testing.T) {
	be := &fakeBackend{getFn: func(ctx context.Context, endpoint, id string, params url.Values) (any, error) {
		if endpoint != EndpointOrders || id != "A1" {
			t.Errorf("Get(%q, %q)", endpoint, id)
		}
		return domain.Order{State: "Completed"}, nil
	}}
	o, err := NewService(be, Options{}).GetOrder(context.Background(), " A1 ")
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if o.ID != "A1" || o.State != "Completed" {
		t.Errorf("order = %+v", o)
	}

	if _, err := NewService(be, Options{}).GetOrder(context.Background(), " "); !domain.IsValidation(err) {
		t.Errorf("blank id error = %v; want validation", err)
	}
}

func TestGetProcess(t *testing.T) {
	be := &fakeBackend{
		getFn: func(ctx context.Context, endpoint, id string, params url.Values) (any, error) {
			switch endpoint {
			case EndpointOrders:
				return domain.Order{ID: id, State: "done", StateChanges: []domain.StateChange{{State: "ack"}}}, nil
			case EndpointProcessVariables:
				return map[string]any{"items": []map[string]any{
					{"key": "k1", "name": "customer", "value": `"Alice"`},
					{"key": "k2", "name": "payload", "value": map[string]any{"a": 1}},
				}}, nil
			}
			return nil, errors.New("unexpected endpoint " + endpoint)
		},
		getRawFn: func(ctx context.Context, endpoint, id string) ([]byte, error) {
			return []byte(testBPMN), nil
		},
	}

	view, err := NewService(be, Options{}).GetProcess(context.Background(), "A1")
	if err != nil {
		t.Fatalf("GetProcess() error = %v", err)
	}
	if view.Order.ID != "A1" || view.XML != testBPMN {
		t.Errorf("view = %+v", view)
	}
	status := map[string]string{}
	for _, n := range view.Nodes {
		status[n.ID] = n.Status
	}
	if status["ack"] != domain.NodeVisited || status["done"] != domain.NodeActive {
		t.Errorf("statuses = %v", status)
	}
	if len(view.Variables) != 2 || view.Variables[0].Value != "Alice" || view.Variables[1].Value != "{\n  \"a\": 1\n}" {
		t.Errorf("variables = %+v", view.Variables)
	}
}

func TestGetProcess_AnyFailureFails(t *testing.T) {
	be := &fakeBackend{
		getFn: func(ctx context.Context, endpoint, id string, params url.Values) (any, error) {
			return domain.Order{ID: id}, nil
		},
		getRawFn: func(ctx context.Context, endpoint, id string) ([]byte, error) {
			return nil, domain.NewAppError(domain.CodeNotFound, "no diagram", nil)
		},
	}
	if _, err := NewService(be, Options{}).GetProcess(context.Background(), "A1"); !domain.IsNotFound(err) {
		t.Fatalf("error = %v; want not found", err)
	}
}
