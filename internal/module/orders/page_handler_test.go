package orders

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/middleware"
	"github.com/simp-lee/order360/internal/orders"
)

// setupPageRouter registers the page routes with stub templates that print
// the values the tests assert on.
func setupPageRouter(h *OrderPageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	tmpl := template.Must(template.New("").Parse(
		`{{define "orders/list.html"}}page:{{template "orders/list.html#results" .}}{{end}}` +
			`{{define "orders/list.html#results"}}` +
			`rows={{len .Result.Orders}} total={{.Result.TotalCount}} pages={{.Pager.TotalPages}} ` +
			`next={{.Pager.HasNext}} prev={{.Pager.HasPrev}}` +
			`{{if not .Result.Orders}} empty={{.EmptyMessage}}{{end}}` +
			`{{with .Notice}} notice={{.}}{{end}} reset={{.ResetURL}}{{end}}` +
			`{{define "orders/list.html#filters"}}type={{.Form.SearchType}} channel={{.Form.Channel}} search={{.Form.Search}} locked={{.Form.Locked}}{{end}}` +
			`{{define "orders/detail.html"}}detail:{{.Detail.Summary.ID}} back={{.BackURL}}{{end}}` +
			`{{define "orders/process.html"}}process:{{.View.Order.ID}} active={{.Active}} visited={{.Visited}}{{end}}` +
			`{{define "errors/400.html"}}400{{end}}` +
			`{{define "errors/404.html"}}404{{end}}` +
			`{{define "errors/500.html"}}500{{end}}` +
			`{{define "errors/502.html"}}502:{{.Message}}{{end}}`,
	))
	r.SetHTMLTemplate(tmpl)

	r.Use(middleware.ViewSession())
	r.GET("/orders", h.ListPage)
	r.GET("/orders/filters", h.FilterForm)
	r.GET("/orders/:id", h.DetailPage)
	r.GET("/orders/:id/process", h.ProcessPage)
	return r
}

const testSession = "_view_session=0b6c2f4e-3d5a-4c1b-9e8f-7a6b5c4d3e2f"

func get(r http.Handler, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListPage_SecondPageOfEighteen(t *testing.T) {
	svc := &mockOrderService{listFn: eightOfEighteen}
	r := setupPageRouter(NewOrderPageHandler(svc, nil, "DE"))

	w := get(r, "/orders?channel=Online&page=2&state=Completed")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "page:") {
		t.Errorf("expected full page, got %q", body)
	}
	for _, want := range []string{"rows=8", "total=18", "pages=2", "next=false", "prev=true", "reset=/orders"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in %q", want, body)
		}
	}
}

func TestListPage_HTMXGetsFragment(t *testing.T) {
	r := setupPageRouter(NewOrderPageHandler(&mockOrderService{}, nil, "DE"))

	w := get(r, "/orders?pageSize=20&channel=Online", "HX-Request", "true")

	body := w.Body.String()
	if strings.HasPrefix(body, "page:") {
		t.Errorf("htmx request should get only the fragment, got %q", body)
	}
	if !strings.Contains(body, "empty="+orders.EmptyMessage) {
		t.Errorf("expected empty message, got %q", body)
	}
	if !strings.Contains(body, "reset=/orders?pageSize=20") {
		t.Errorf("reset should keep page size and drop filters, got %q", body)
	}
}

func TestListPage_CanonicalURL(t *testing.T) {
	const formQuery = "/orders?prevSearchType=orderId&searchType=orderId&search=&channel=Online" +
		"&businessProcess=all&state=all&dateFrom=&dateTo=&pageSize=10"

	tests := []struct {
		name         string
		path         string
		htmx         bool
		wantStatus   int
		wantPush     string
		wantLocation string
	}{
		{"htmx form submit pushes canonical url", formQuery, true, http.StatusOK, "/orders?channel=Online", ""},
		{"htmx default state pushes bare path", "/orders?page=1&channel=all", true, http.StatusOK, "/orders", ""},
		{"full load of form query redirects", formQuery, false, http.StatusFound, "", "/orders?channel=Online"},
		{"full load of defaults redirects", "/orders?page=1&pageSize=10", false, http.StatusFound, "", "/orders"},
		{"canonical full load renders", "/orders?channel=Online&page=2", false, http.StatusOK, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupPageRouter(NewOrderPageHandler(&mockOrderService{}, nil, "DE"))
			var w *httptest.ResponseRecorder
			if tt.htmx {
				w = get(r, tt.path, "HX-Request", "true")
			} else {
				w = get(r, tt.path)
			}

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("HX-Push-Url"); got != tt.wantPush {
				t.Errorf("HX-Push-Url = %q; want %q", got, tt.wantPush)
			}
			if got := w.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q; want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestListPage_BackendFailureRendersNotice(t *testing.T) {
	svc := &mockOrderService{listFn: func(context.Context, domain.ListState) (*domain.QueryResult, error) {
		return nil, domain.NewAppError(domain.CodeUpstream, "dial tcp: refused", nil)
	}}
	r := setupPageRouter(NewOrderPageHandler(svc, nil, "DE"))

	w := get(r, "/orders", "HX-Request", "true")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "rows=0") || !strings.Contains(body, "empty=") {
		t.Errorf("expected empty table, got %q", body)
	}
	if strings.Contains(body, "dial tcp") {
		t.Errorf("backend error detail leaked: %q", body)
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), "showToast") {
		t.Errorf("expected toast trigger, got %q", w.Header().Get("HX-Trigger"))
	}
}

func TestListPage_SupersededRequestIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	svc := &mockOrderService{listFn: func(ctx context.Context, state domain.ListState) (*domain.QueryResult, error) {
		if state.Page == 1 {
			started <- struct{}{}
			<-release
			return &domain.QueryResult{Orders: []domain.OrderSummary{{ID: "old"}}, TotalCount: 30}, nil
		}
		return &domain.QueryResult{Orders: []domain.OrderSummary{{ID: "new"}}, TotalCount: 30}, nil
	}}
	latest := orders.NewLatest()
	r := setupPageRouter(NewOrderPageHandler(svc, latest, "DE"))

	var wg sync.WaitGroup
	var first *httptest.ResponseRecorder
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = get(r, "/orders", "HX-Request", "true", "Cookie", testSession)
	}()
	<-started

	second := get(r, "/orders?page=2", "HX-Request", "true", "Cookie", testSession)
	close(release)
	wg.Wait()

	if second.Code != http.StatusOK || !strings.Contains(second.Body.String(), "rows=1") {
		t.Errorf("newest request should render, got %d %q", second.Code, second.Body.String())
	}
	if first.Code != http.StatusNoContent || first.Header().Get("HX-Reswap") != "none" {
		t.Errorf("superseded request should be discarded, got %d %q", first.Code, first.Body.String())
	}
	if latest.Len() != 0 {
		t.Errorf("expected no sessions in flight, got %d", latest.Len())
	}
}

func TestListPage_FullLoadsAreNotSuperseded(t *testing.T) {
	svc := &mockOrderService{listFn: func(ctx context.Context, state domain.ListState) (*domain.QueryResult, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
		return &domain.QueryResult{Orders: []domain.OrderSummary{}}, nil
	}}
	latest := orders.NewLatest()
	r := setupPageRouter(NewOrderPageHandler(svc, latest, "DE"))

	w := get(r, "/orders", "Cookie", testSession)
	if w.Code != http.StatusOK || latest.Len() != 0 {
		t.Errorf("expected plain render without session tracking, got %d, %d sessions", w.Code, latest.Len())
	}
}

func TestFilterForm_LeavingOrderIDClearsLockedControls(t *testing.T) {
	r := setupPageRouter(NewOrderPageHandler(&mockOrderService{}, nil, "DE"))

	w := get(r, "/orders/filters?prevSearchType=orderId&searchType=partyId&search=P-1&channel=Online")

	want := "type=partyId channel=all search=P-1 locked=false"
	if w.Body.String() != want {
		t.Errorf("expected %q, got %q", want, w.Body.String())
	}
}

func TestFilterForm_UnlockedKeepsControls(t *testing.T) {
	r := setupPageRouter(NewOrderPageHandler(&mockOrderService{}, nil, "DE"))

	w := get(r, "/orders/filters?prevSearchType=orderId&searchType=partyId&channel=Online")

	want := "type=partyId channel=Online search= locked=false"
	if w.Body.String() != want {
		t.Errorf("expected %q, got %q", want, w.Body.String())
	}
}

func TestDetailPage(t *testing.T) {
	svc := &mockOrderService{order: &domain.Order{ID: "A1"}}
	r := setupPageRouter(NewOrderPageHandler(svc, nil, "DE"))

	w := get(r, "/orders/A1?back=channel%3DOnline%26page%3D3")
	if w.Code != http.StatusOK || w.Body.String() != "detail:A1 back=/orders?channel=Online&amp;page=3" {
		t.Errorf("unexpected detail response %d %q", w.Code, w.Body.String())
	}

	if w := get(r, "/orders/missing"); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestDetailPage_BackendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"upstream", domain.NewAppError(domain.CodeUpstream, "boom", nil), http.StatusBadGateway, "502:The order service is unavailable. Please try again later."},
		{"unauthorized", domain.NewAppError(domain.CodeUnauthorized, "401", nil), http.StatusBadGateway, "502:The order service rejected our credentials. Please contact an administrator."},
		{"internal", domain.NewAppError(domain.CodeInternal, "boom", nil), http.StatusInternalServerError, "500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupPageRouter(NewOrderPageHandler(&mockOrderService{getErr: tt.err}, nil, "DE"))
			w := get(r, "/orders/A1")
			if w.Code != tt.code || w.Body.String() != tt.body {
				t.Errorf("expected %d %q, got %d %q", tt.code, tt.body, w.Code, w.Body.String())
			}
		})
	}
}

func TestProcessPage(t *testing.T) {
	view := &domain.ProcessView{
		Order: &domain.Order{ID: "A1"},
		Nodes: []domain.ProcessNode{
			{ID: "start"},
			{ID: "ack", Status: domain.NodeVisited},
			{ID: "done", Status: domain.NodeActive},
		},
	}
	r := setupPageRouter(NewOrderPageHandler(&mockOrderService{process: view}, nil, "DE"))

	w := get(r, "/orders/A1/process")
	if w.Code != http.StatusOK || w.Body.String() != "process:A1 active=[done] visited=[ack]" {
		t.Errorf("unexpected process response %d %q", w.Code, w.Body.String())
	}
}
