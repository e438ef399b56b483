package dashboard

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
)

type mockDashboardService struct {
	overview *domain.Overview
	err      error
}

func (m *mockDashboardService) Overview(context.Context) (*domain.Overview, error) {
	return m.overview, m.err
}

func setupRouter(svc domain.DashboardService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("").Parse(
		`{{define "home.html"}}total={{.Overview.Metrics.TotalOrders}}` +
			`{{if .Failed.channels}} channels-failed{{end}}{{with .Notice}} notice={{.}}{{end}}{{end}}`,
	)))
	NewModule(NewDashboardHandler(svc), NewDashboardPageHandler(svc)).RegisterRoutes(r.Group("/api/v1"), r.Group("/"))
	return r
}

func TestHomePage(t *testing.T) {
	svc := &mockDashboardService{overview: &domain.Overview{
		Metrics: domain.OrderMetrics{TotalOrders: 7},
		Failed:  []string{PanelChannels},
	}}
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK || w.Body.String() != "total=7 channels-failed" {
		t.Errorf("unexpected response %d %q", w.Code, w.Body.String())
	}
}

func TestHomePage_BackendDown(t *testing.T) {
	svc := &mockDashboardService{err: domain.NewAppError(domain.CodeUpstream, "refused", nil)}
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "channels-failed notice=The order service is unavailable") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestOverviewAPI(t *testing.T) {
	tests := []struct {
		name string
		svc  *mockDashboardService
		code int
	}{
		{"ok", &mockDashboardService{overview: &domain.Overview{}}, http.StatusOK},
		{"upstream", &mockDashboardService{err: domain.ErrUpstream}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			setupRouter(tt.svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
			if w.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, w.Code)
			}
		})
	}
}
